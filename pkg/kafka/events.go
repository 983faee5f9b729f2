package kafka

import (
	"time"
)

// TopicPlatformEvents is the firehose topic all simulation activity lands on.
const TopicPlatformEvents = "platform_events"

// Event types emitted by the simulation.
const (
	EventPostCreated        = "post_created"
	EventEngagementCreated  = "engagement_created"
	EventStreamMatch        = "stream_match"
	EventCrisisPhaseChanged = "crisis_phase_changed"
	EventCrisisStarted      = "crisis_started"
	EventCrisisReset        = "crisis_reset"
)

// PlatformEvent represents a single simulation activity event for
// downstream consumers (analytics, archival, replay).
type PlatformEvent struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	Source        string                 `json:"source"`
	CrisisID      *string                `json:"crisis_id,omitempty"`
	PostID        *string                `json:"post_id,omitempty"`
	ActorID       *string                `json:"actor_id,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	SchemaVersion string                 `json:"schema_version"`
}

// NewPlatformEvent creates an event with the standard envelope filled in.
func NewPlatformEvent(eventID, eventType, source string) *PlatformEvent {
	return &PlatformEvent{
		EventID:       eventID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		SchemaVersion: "1.0",
	}
}

// WithCrisis attaches a crisis ID to the event.
func (e *PlatformEvent) WithCrisis(crisisID string) *PlatformEvent {
	e.CrisisID = &crisisID
	return e
}

// WithPost attaches post and author IDs to the event.
func (e *PlatformEvent) WithPost(postID, actorID string) *PlatformEvent {
	e.PostID = &postID
	e.ActorID = &actorID
	return e
}

// WithData attaches the free-form payload to the event.
func (e *PlatformEvent) WithData(data map[string]interface{}) *PlatformEvent {
	e.Data = data
	return e
}
