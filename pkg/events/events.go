package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type EventType string

const (
	// Assistant run lifecycle
	EventTypeRunCreated   EventType = "run-created"
	EventTypeRunStatus    EventType = "run-status"
	EventTypeRunCompleted EventType = "run-completed"

	// Model requested a tool call, and the local handler answered it
	EventTypeToolCall   EventType = "tool-call"
	EventTypeToolResult EventType = "tool-result"

	// Speech synthesis
	EventTypeSpeechStarted     EventType = "speech-started"
	EventTypeSpeechRateLimited EventType = "speech-rate-limited"
	EventTypeSpeechWritten     EventType = "speech-written"
	EventTypeSpeechEncoded     EventType = "speech-encoded"

	// Music generation
	EventTypeMusicRequested EventType = "music-requested"
	EventTypeMusicReady     EventType = "music-ready"

	// Informational/logging events
	EventTypeInfo EventType = "info"
)

// Event is a progress notification emitted by the clients. Data holds
// type-specific fields (run ids, wait durations, paths) and must be JSON
// serializable.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	Time      time.Time      `json:"time"`
	SessionID string         `json:"session_id,omitempty"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func NewEvent(type_ EventType, message string, data map[string]any) Event {
	return Event{
		ID:      uuid.New(),
		Type:    type_,
		Time:    time.Now(),
		Message: message,
		Data:    data,
	}
}

func (e Event) WithSession(sessionID string) Event {
	e.SessionID = sessionID
	return e
}

func NewEventFromJson(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, errors.Wrap(err, "failed to decode event")
	}
	if e.Type == "" {
		return Event{}, errors.New("event has no type")
	}
	return e, nil
}
