package events

import "time"

// DomainEvent is a fact worth announcing outside the process once it happened.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}
