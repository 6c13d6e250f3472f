package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
)

// AttributionRecalculatedEvent notifies consumers that a deal's attribution
// row set was rewritten
type AttributionRecalculatedEvent struct {
	DealID     uuid.UUID `json:"dealId"`
	DealStatus string    `json:"dealStatus"`
	RowCount   int       `json:"rowCount"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PayoutTransitionEvent notifies consumers of a payout lifecycle change; the
// notification/email layer reacts to "mark_paid" events
type PayoutTransitionEvent struct {
	PayoutID   uuid.UUID           `json:"payoutId"`
	PartnerID  uuid.UUID           `json:"partnerId"`
	Event      string              `json:"event"`
	Status     models.PayoutStatus `json:"status"`
	Amount     float64             `json:"amount"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// Publisher publishes domain events to NATS. A nil client degrades to a
// warn-logged no-op so the service runs without a broker in development.
type Publisher struct {
	client *Client
	logger *logrus.Logger
}

// NewPublisher creates a new domain event publisher
func NewPublisher(client *Client, logger *logrus.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// PublishAttributionRecalculated publishes to attribution.recalculated
func (p *Publisher) PublishAttributionRecalculated(ctx context.Context, event AttributionRecalculatedEvent) error {
	event.OccurredAt = time.Now()
	return p.publish(ctx, "attribution.recalculated", event)
}

// PublishPayoutTransition publishes to payout.<event>
func (p *Publisher) PublishPayoutTransition(ctx context.Context, event PayoutTransitionEvent) error {
	event.OccurredAt = time.Now()
	return p.publish(ctx, fmt.Sprintf("payout.%s", event.Event), event)
}

func (p *Publisher) publish(ctx context.Context, subject string, payload interface{}) error {
	if p.client == nil || !p.client.IsConnected() {
		p.logger.WithField("subject", subject).Warn("NATS not connected, skipping event publish")
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.client.JetStream().Publish(subject, data, nats.Context(ctx))
	if err != nil {
		p.logger.WithField("subject", subject).WithError(err).Error("Failed to publish event")
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject":  subject,
		"sequence": ack.Sequence,
		"stream":   ack.Stream,
	}).Debug("Published event")

	return nil
}
