package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

const (
	RidePublished    = "ride.published"
	RequestSubmitted = "request.submitted"
	BookingCommitted = "booking.committed"
)

// Event is a domain fact published after its transaction commits.
type Event struct {
	Type       string    `json:"type"`
	EntityID   int64     `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType string, entityID int64, payload any) Event {
	return Event{
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

func (e Event) key() []byte {
	return []byte(e.Type + ":" + strconv.FormatInt(e.EntityID, 10))
}

func (e Event) body() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type nopPublisher struct{}

// NewNop returns a Publisher that drops every event.
func NewNop() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, Event) error { return nil }
func (nopPublisher) Close() error                         { return nil }
