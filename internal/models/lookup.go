package models

// LookupRecord is a normalized city picker entry
type LookupRecord struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Group string `json:"group"`
}

// LookupItem is a selectable option of a lookup group
type LookupItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// LookupGroup is one group of the city picker
type LookupGroup struct {
	Text     string       `json:"text"`
	Children []LookupItem `json:"children"`
}

// LookupResponse is the city picker wire shape
type LookupResponse struct {
	Results []LookupGroup `json:"results"`
	More    bool          `json:"more"`
}

// FormFieldType is how a client should render an extra form field
type FormFieldType string

const (
	FieldHidden FormFieldType = "hidden"
	FieldSelect FormFieldType = "select"
	FieldLookup FormFieldType = "lookup"
	FieldRadio  FormFieldType = "radio"
)

// FormChoice is one selectable value of a form field
type FormChoice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormField describes one field of an extra form
type FormField struct {
	Name     string        `json:"name"`
	Label    string        `json:"label"`
	Type     FormFieldType `json:"type"`
	Initial  string        `json:"initial,omitempty"`
	Required bool          `json:"required"`
	Choices  []FormChoice  `json:"choices,omitempty"`
}

// ExtraForm is a presentation-neutral description of the form a buyer fills
// in to disambiguate the destination or pick a transport option
type ExtraForm struct {
	Carrier    APIType     `json:"carrier"`
	Method     string      `json:"method"`
	Fields     []FormField `json:"fields"`
	LookupURL  string      `json:"lookupUrl,omitempty"`
	DetailsURL string      `json:"detailsUrl,omitempty"`
}

// Field returns the form field with the given name
func (f *ExtraForm) Field(name string) (FormField, bool) {
	if f == nil {
		return FormField{}, false
	}
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FormField{}, false
}
