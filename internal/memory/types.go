package memory

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidArgument reports malformed caller input, such as empty content.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable reports that the backing store cannot be reached.
	ErrUnavailable = errors.New("memory store unavailable")
)

// Record is a durable fact about a user, independent of any single session.
// Records are immutable once created; a superseding fact is a new record,
// never an in-place edit, so provenance is preserved.
type Record struct {
	UserProfileID   string    `json:"user_profile_id"`
	MemoryID        string    `json:"memory_id"`
	MemType         string    `json:"mem_type"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	SourceSessionID string    `json:"source_session_id,omitempty"`
}

// Store persists long-term user facts. No delete or update is exposed:
// forgetting is modeled as a superseding record downstream.
type Store interface {
	// Create assigns a memory id and creation time, persists the record and
	// returns it. Empty content or profile id is rejected.
	Create(ctx context.Context, userProfileID, memType, content, sourceSessionID string) (Record, error)
	// List returns all records for the user, unordered at the contract level.
	// An unknown user yields an empty slice, not an error.
	List(ctx context.Context, userProfileID string) ([]Record, error)
	Close() error
}

func validateCreate(userProfileID, content string) error {
	if userProfileID == "" || content == "" {
		return ErrInvalidArgument
	}
	return nil
}
