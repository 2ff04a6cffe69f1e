package cache

import "sync"

// OriginMemo remembers resolved origin codes for the life of the process.
// Keys are "<carrier>:<origin>". The first stored code wins and entries are
// never invalidated.
type OriginMemo struct {
	mu    sync.RWMutex
	codes map[string]string
}

// NewOriginMemo creates an empty memo
func NewOriginMemo() *OriginMemo {
	return &OriginMemo{codes: make(map[string]string)}
}

// Get returns the memoized code for key
func (m *OriginMemo) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.codes[key]
	return code, ok
}

// Remember stores code under key unless a code is already there, and
// returns whichever code ends up stored
func (m *OriginMemo) Remember(key, code string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.codes[key]; ok {
		return existing
	}
	m.codes[key] = code
	return code
}
