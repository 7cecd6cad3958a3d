package session

import (
	"context"
	"errors"
	"time"
)

// Roles a turn can carry. The log never stores any other role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrInvalidArgument reports malformed caller input, such as an empty
	// user message or an unknown role.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable reports that the backing store cannot be reached.
	ErrUnavailable = errors.New("session store unavailable")
)

// Turn is one message appended to a session's log. Turns are immutable once
// stored; SequenceIndex is assigned at append time and is gap-free per session.
type Turn struct {
	SessionID     string    `json:"session_id"`
	SequenceIndex int64     `json:"sequence_index"`
	Role          string    `json:"role"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
}

// Store persists the per-session turn log. The log is append/clear only:
// no single-turn update or delete exists, which keeps ordering invariants
// trivial to preserve.
type Store interface {
	// Append assigns the next sequence index and timestamp, stores the turn
	// atomically and returns it. Empty text for a user turn is rejected.
	Append(ctx context.Context, sessionID, role, text string) (Turn, error)
	// ReadRecent returns the last limit turns in ascending sequence order.
	// An unknown session yields an empty slice, not an error: it is simply
	// a conversation that has not started yet.
	ReadRecent(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	// Clear deletes all turns for the session. Idempotent.
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

func validateAppend(sessionID, role, text string) error {
	if sessionID == "" {
		return ErrInvalidArgument
	}
	switch role {
	case RoleUser, RoleAssistant:
	default:
		return ErrInvalidArgument
	}
	if role == RoleUser && text == "" {
		return ErrInvalidArgument
	}
	return nil
}
