package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event marks something significant that happened
// in the attendance workflow.
const (
	// Attendance events
	EventAttendanceSaved       EventType = "attendance.saved"
	EventAttendanceOverwritten EventType = "attendance.overwritten"
	EventAllClassesRecorded    EventType = "attendance.all_classes_recorded"

	// System events
	EventBroadcastSent   EventType = "system.broadcast_sent"
	EventBroadcastFailed EventType = "system.broadcast_failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string { return e.AggregateId }

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// AttendanceSavedEvent is emitted after a record is committed for a class/date.
type AttendanceSavedEvent struct {
	BaseEvent
	ClassID     string `json:"class_id"`
	Date        string `json:"date"`
	Present     int    `json:"present"`
	Total       int    `json:"total"`
	Overwritten bool   `json:"overwritten"`
}

// NewAttendanceSavedEvent creates an AttendanceSavedEvent.
func NewAttendanceSavedEvent(classID, date string, present, total int, overwritten bool) AttendanceSavedEvent {
	eventType := EventAttendanceSaved
	if overwritten {
		eventType = EventAttendanceOverwritten
	}
	return AttendanceSavedEvent{
		BaseEvent:   NewBaseEvent(eventType, classID+"|"+date),
		ClassID:     classID,
		Date:        date,
		Present:     present,
		Total:       total,
		Overwritten: overwritten,
	}
}

// AllClassesRecordedEvent is emitted once per day when every known class has
// a committed record for today.
type AllClassesRecordedEvent struct {
	BaseEvent
	Date       string `json:"date"`
	ClassCount int    `json:"class_count"`
}

// NewAllClassesRecordedEvent creates an AllClassesRecordedEvent.
func NewAllClassesRecordedEvent(date string, classCount int) AllClassesRecordedEvent {
	return AllClassesRecordedEvent{
		BaseEvent:  NewBaseEvent(EventAllClassesRecorded, date),
		Date:       date,
		ClassCount: classCount,
	}
}

// EventHandler processes a published event.
type EventHandler interface {
	// Handle processes the event.
	Handle(ctx context.Context, event Event) error

	// Name identifies the handler in logs.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f.Fn(ctx, event)
}

// Name implements EventHandler.
func (f EventHandlerFunc) Name() string { return f.HandlerName }

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	// Publish delivers the event to all subscribers of its type.
	Publish(ctx context.Context, event Event) error
}
