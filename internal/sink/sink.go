// Package sink delivers transcripts produced by a session to the outside
// world: hook commands, a NATS subject, desktop notifications.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSkipped marks a delivery the sink declined on purpose (cooldown,
// filters). It is not a failure.
var ErrSkipped = errors.New("skipped")

// Transcript is what sinks receive.
type Transcript struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Final     bool      `json:"final"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTranscript stamps text with a fresh id.
func NewTranscript(sessionID, text string, final bool, at time.Time) Transcript {
	return Transcript{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Text:      text,
		Final:     final,
		Timestamp: at,
	}
}

// Sink consumes transcripts.
type Sink interface {
	Name() string
	// Wants reports whether the sink takes interim transcripts too.
	Wants(t Transcript) bool
	Deliver(ctx context.Context, t Transcript) error
}
