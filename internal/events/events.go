package events

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	TypeMemberRegistered          = "member.registered"
	TypeInvestorInterestSubmitted = "investor_interest.submitted"
	TypeSubscriptionExpired       = "subscription.expired"
)

// Event is the envelope published for every domain event. Type doubles as the
// routing key.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func New(eventType string, at time.Time, data any) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.log.Debug("event dropped, no broker configured",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)
	return nil
}

// PublishSafely publishes and logs failures instead of returning them.
func PublishSafely(ctx context.Context, publisher Publisher, log *zap.Logger, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
	}
}
