package events

import (
	"context"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/models"
)

// Shipping charge event types
const (
	ChargeCalculated = "shipping.charge.calculated"
	ChargeFailed     = "shipping.charge.failed"

	StreamName = "SHIPPING_EVENTS"
)

// ChargeEvent reports the outcome of one charge calculation
type ChargeEvent struct {
	events.BaseEvent
	MethodID        string   `json:"methodId"`
	MethodCode      string   `json:"methodCode"`
	Carrier         string   `json:"carrier,omitempty"`
	State           string   `json:"state"`
	OriginCode      string   `json:"originCode,omitempty"`
	DestinationCode string   `json:"destinationCode,omitempty"`
	Amount          string   `json:"amount"`
	Currency        string   `json:"currency,omitempty"`
	Weight          string   `json:"weight"`
	Packs           int      `json:"packs"`
	Errors          []string `json:"errors,omitempty"`
}

func (e *ChargeEvent) GetSubject() string {
	return e.EventType
}

func (e *ChargeEvent) GetStream() string {
	return StreamName
}

// NewChargeEvent builds the event for a calculation result
func NewChargeEvent(method *models.ShippingMethod, result *models.ChargeResult) *ChargeEvent {
	eventType := ChargeCalculated
	if result.State == models.StateFailed {
		eventType = ChargeFailed
	}
	return &ChargeEvent{
		BaseEvent: events.BaseEvent{
			EventType: eventType,
			TenantID:  method.TenantID,
			Timestamp: time.Now().UTC(),
		},
		MethodID:        method.ID.String(),
		MethodCode:      method.Code,
		Carrier:         string(result.Carrier),
		State:           string(result.State),
		OriginCode:      result.OriginCode,
		DestinationCode: result.DestinationCode,
		Amount:          result.Charge.InclTax.StringFixed(2),
		Currency:        result.Charge.Currency,
		Weight:          result.Weight.String(),
		Packs:           len(result.Packs),
		Errors:          result.Errors,
	}
}

// Publisher wraps the shared events publisher for shipping charge events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new shipping charge events publisher
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "shipping-charge-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, StreamName, []string{"shipping.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure SHIPPING_EVENTS stream")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "events.publisher"),
	}, nil
}

// PublishChargeCalculated publishes the outcome of a charge calculation.
// Calculations still waiting on the buyer are not published.
func (p *Publisher) PublishChargeCalculated(ctx context.Context, method *models.ShippingMethod, result *models.ChargeResult) error {
	if p == nil || p.publisher == nil || result == nil {
		return nil
	}
	switch result.State {
	case models.StateResolved, models.StateConfirmed, models.StateFailed:
	default:
		return nil
	}
	if !p.publisher.IsConnected() {
		p.logger.WithField("method", method.Code).Debug("NATS disconnected, charge event dropped")
		return nil
	}
	return p.publisher.Publish(ctx, NewChargeEvent(method, result))
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p != nil && p.publisher != nil && p.publisher.IsConnected()
}

// Close closes the publisher connection
func (p *Publisher) Close() {
	if p != nil && p.publisher != nil {
		p.publisher.Close()
	}
}
