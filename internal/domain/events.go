package domain

import "time"

// EventType classifies outcomes the notifier turns into user
// communications. Only the trigger condition lives here; rendering and
// delivery are external.
type EventType string

const (
	EventFirstSyncSucceeded EventType = "sync.first_success"
	EventSyncPartialFailure EventType = "sync.partial"
	EventAccountDisabled    EventType = "account.disabled"
)

// Event is an outcome emitted at the end of a pass.
type Event struct {
	Type       EventType
	UserID     string
	OccurredAt time.Time
	Payload    map[string]any
}
