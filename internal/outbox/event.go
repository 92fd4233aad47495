// Package outbox records domain events in the same transaction as the state
// change that produced them and relays them to Kafka.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID            int64           `json:"-"`
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     string          `json:"eventType"`
	Payload       json.RawMessage `json:"payload"`
	Topic         string          `json:"-"`
	CreatedAt     time.Time       `json:"occurredAt"`
	PublishedAt   *time.Time      `json:"-"`
	Attempts      int             `json:"-"`
	LastError     *string         `json:"-"`
}

// NewEvent builds an event with a fresh id and the JSON encoding of payload.
func NewEvent(topic, aggregateType, aggregateID, eventType string, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{
		EventID:       uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
		Topic:         topic,
		CreatedAt:     at,
	}, nil
}
