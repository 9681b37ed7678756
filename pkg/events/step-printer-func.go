package events

import (
	"fmt"
	"io"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// PrinterFunc returns a watermill handler that renders progress events as
// one "> ..." line each on w.
func PrinterFunc(w io.Writer) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJson(msg.Payload)
		if err != nil {
			// one bad message should not stop the printer
			log.Warn().Err(err).Str("message_id", msg.UUID).Msg("skipping undecodable event")
			return nil
		}

		line := FormatEvent(e)
		if line == "" {
			return nil
		}
		_, err = fmt.Fprintln(w, line)
		return err
	}
}

// FormatEvent renders a single event. Events without a human readable form
// (per-poll status updates) render as the empty string.
func FormatEvent(e Event) string {
	switch e.Type {
	case EventTypeRunStatus:
		return ""
	case EventTypeRunCreated:
		return fmt.Sprintf("> run %v started on thread %v", e.Data["run_id"], e.Data["thread_id"])
	case EventTypeToolCall:
		return fmt.Sprintf("> tool call %v (%v)", e.Data["name"], e.Data["call_id"])
	case EventTypeToolResult:
		return fmt.Sprintf("> tool %v answered", e.Data["name"])
	case EventTypeRunCompleted:
		return fmt.Sprintf("> run completed, cost $%v", e.Data["cost"])
	case EventTypeSpeechStarted:
		return "> elevenlabs processing started"
	case EventTypeSpeechRateLimited:
		wait := time.Duration(number(e.Data["wait_ms"])) * time.Millisecond
		return fmt.Sprintf("> server busy, waiting %s...", wait)
	case EventTypeSpeechWritten:
		return fmt.Sprintf("> %v written", e.Data["path"])
	case EventTypeSpeechEncoded:
		return fmt.Sprintf("> %v created", e.Data["path"])
	case EventTypeMusicRequested:
		return fmt.Sprintf("> composing %q", e.Data["title"])
	case EventTypeMusicReady:
		return fmt.Sprintf("> track ready: %v", e.Data["audio_url"])
	}
	if e.Message != "" {
		return "> " + e.Message
	}
	return ""
}

// number reads a numeric field that may have gone through a JSON round trip.
func number(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
