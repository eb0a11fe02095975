// Package store provides the memory storage engine: a single SQLite file
// holding memories, sessions, summaries, and prompts, with FTS5 shadow
// indexes kept in sync on every write.
package store

import (
	"context"

	"github.com/kyleliao/agent-recall/internal/model"
)

// AddParams holds fields for a new memory. Only Content is required;
// everything else is normalized or defaulted on write.
type AddParams struct {
	Content         string
	Type            string
	Title           string
	Subtitle        string
	Facts           []string
	Concepts        []string
	FilesRead       []string
	FilesModified   []string
	SessionID       string
	Project         string
	Category        string
	Importance      float64
	Tags            []string
	Metadata        map[string]any
	DiscoveryTokens int
}

// ListParams holds independent, combinable filters for listing memories.
// Zero values mean "no filter".
type ListParams struct {
	Type          string
	Category      string
	Concepts      []string // any-of membership
	Project       string
	SessionID     string
	MinImportance float64 // inclusive lower bound, applied when > 0
	SinceEpoch    int64   // inclusive lower bound in epoch ms, applied when > 0
	Limit         int     // 0 means unlimited
}

// IndexParams holds filters for the index projection.
type IndexParams struct {
	Project    string
	SinceEpoch int64
	Limit      int
}

// UpdateParams holds a partial update. Nil fields are left untouched.
// Invalid Type/Category values are silently dropped while the rest of the
// update still applies.
type UpdateParams struct {
	Content    *string
	Type       *string
	Title      *string
	Subtitle   *string
	Facts      []string
	Concepts   []string
	Category   *string
	Importance *float64
	Tags       []string
}

// SummaryParams holds fields for a new session summary.
type SummaryParams struct {
	SessionID       string
	Project         string
	Request         string
	Investigated    string
	Learned         string
	Completed       string
	NextSteps       string
	Notes           string
	FilesRead       []string
	FilesEdited     []string
	DiscoveryTokens int
}

// Store is the memory record surface consumed by callers. Reads addressed
// to a missing id return (nil, nil) rather than an error.
type Store interface {
	// Add validates, normalizes, and persists a new memory, then enforces
	// the retention limit. Fails only when Content is empty.
	Add(ctx context.Context, p AddParams) (*model.Memory, error)

	// Get returns a memory by id, incrementing its access count as part of
	// the same read. Returns (nil, nil) when the id does not exist.
	Get(ctx context.Context, id string) (*model.Memory, error)

	// List returns memories matching the filters, ordered by importance
	// descending then creation time descending.
	List(ctx context.Context, p ListParams) ([]model.Memory, error)

	// ListIndex returns the index projection for cheap context previews.
	ListIndex(ctx context.Context, p IndexParams) ([]model.MemoryIndex, error)

	// Update applies a partial update and returns the post-update record,
	// or (nil, nil) when the id does not exist.
	Update(ctx context.Context, id string, p UpdateParams) (*model.Memory, error)

	// Delete removes a memory by id. Returns whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)

	// Count returns the total number of stored memories.
	Count(ctx context.Context) (int, error)

	// Close closes the store.
	Close() error
}
