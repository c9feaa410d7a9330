package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entities and operations carried by change events.
const (
	EntityStudyPlan = "study_plan"
	EntityStudent   = "student"
	EntityPayment   = "payment"

	OpCreated   = "created"
	OpDeleted   = "deleted"
	OpCorrected = "corrected"
)

// ChangeEvent is published after every successful store mutation. It carries
// identifiers only; consumers that need the record read the snapshot.
type ChangeEvent struct {
	EventID   string    `json:"event_id"`
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	EntityID  string    `json:"entity_id"`
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent builds an event with a fresh uuid and the current time.
func NewChangeEvent(entity, op, entityID string, version uint64) *ChangeEvent {
	return &ChangeEvent{
		EventID:   uuid.NewString(),
		Entity:    entity,
		Op:        op,
		EntityID:  entityID,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON parses an event from JSON bytes.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
