// Package model defines the record types stored by agent-recall.
package model

import (
	"strings"
	"time"
)

// Memory is a single observation recorded by an agent: something learned,
// decided, or changed, with classification metadata.
type Memory struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Subtitle       string         `json:"subtitle"`
	Content        string         `json:"content"`
	Facts          []string       `json:"facts"`
	Concepts       []string       `json:"concepts"`
	FilesRead      []string       `json:"files_read"`
	FilesModified  []string       `json:"files_modified"`
	SessionID      string         `json:"session_id,omitempty"`
	Project        string         `json:"project,omitempty"`
	Category       string         `json:"category"`
	Importance     float64        `json:"importance"`
	Tags           []string       `json:"tags"`
	Metadata       map[string]any `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
	CreatedAtEpoch int64          `json:"created_at_epoch"`
	AccessedCount  int            `json:"accessed_count"`
	DiscoveryTokens int           `json:"discovery_tokens"`
}

// MemoryIndex is the minimal projection of a memory used for cheap context
// previews: enough to decide whether fetching the full record is worth it.
type MemoryIndex struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle"`
	Concepts      []string  `json:"concepts"`
	CreatedAt     time.Time `json:"created_at"`
	TokenEstimate int       `json:"token_estimate"`
}

// Index returns the index projection of m. The token estimate is
// len(content)/4, a rough chars-per-token heuristic.
func (m *Memory) Index() MemoryIndex {
	return MemoryIndex{
		ID:            m.ID,
		Type:          m.Type,
		Title:         m.Title,
		Subtitle:      m.Subtitle,
		Concepts:      m.Concepts,
		CreatedAt:     m.CreatedAt,
		TokenEstimate: len(m.Content) / 4,
	}
}

// Session tracks one external agent session across its prompts.
type Session struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id"`
	Project          string     `json:"project,omitempty"`
	UserPrompt       string     `json:"user_prompt,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	StartedAtEpoch   int64      `json:"started_at_epoch"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CompletedAtEpoch int64      `json:"completed_at_epoch,omitempty"`
	Status           string     `json:"status"`
	PromptCount      int        `json:"prompt_count"`
}

// SessionSummary is an append-only narrative summary of a session's progress.
type SessionSummary struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	Project         string    `json:"project,omitempty"`
	Request         string    `json:"request"`
	Investigated    string    `json:"investigated"`
	Learned         string    `json:"learned"`
	Completed       string    `json:"completed"`
	NextSteps       string    `json:"next_steps"`
	Notes           string    `json:"notes"`
	FilesRead       []string  `json:"files_read"`
	FilesEdited     []string  `json:"files_edited"`
	DiscoveryTokens int       `json:"discovery_tokens"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedAtEpoch  int64     `json:"created_at_epoch"`
}

// UserPrompt is one prompt a user issued within a session.
type UserPrompt struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	PromptNumber   int       `json:"prompt_number"`
	PromptText     string    `json:"prompt_text"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedAtEpoch int64     `json:"created_at_epoch"`
}

// Observation types. Anything else is normalized to TypeChange on write.
const (
	TypeBugfix    = "bugfix"
	TypeFeature   = "feature"
	TypeRefactor  = "refactor"
	TypeChange    = "change"
	TypeDiscovery = "discovery"
	TypeDecision  = "decision"
)

// ValidTypes are the allowed observation types.
var ValidTypes = map[string]bool{
	TypeBugfix:    true,
	TypeFeature:   true,
	TypeRefactor:  true,
	TypeChange:    true,
	TypeDiscovery: true,
	TypeDecision:  true,
}

// ValidCategories are the allowed legacy categories. Anything else is
// normalized to "general" on write.
var ValidCategories = map[string]bool{
	"learning":        true,
	"decision":        true,
	"issue_solved":    true,
	"preference":      true,
	"pattern":         true,
	"recipe":          true,
	"coding_style":    true,
	"tech_stack":      true,
	"project_context": true,
	"communication":   true,
	"general":         true,
}

// KnownConcepts are the documented knowledge-classification tags. Concepts
// are not validated on write; this list exists for tooling and help text.
var KnownConcepts = []string{
	"how-it-works",
	"why-it-exists",
	"what-changed",
	"problem-solution",
	"gotcha",
	"pattern",
	"trade-off",
}

// Session statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ValidStatuses are the allowed session statuses.
var ValidStatuses = map[string]bool{
	StatusActive:    true,
	StatusCompleted: true,
	StatusFailed:    true,
}

// NormalizeType maps unknown observation types to TypeChange.
func NormalizeType(t string) string {
	if ValidTypes[t] {
		return t
	}
	return TypeChange
}

// NormalizeCategory maps unknown categories to "general".
func NormalizeCategory(c string) string {
	if ValidCategories[c] {
		return c
	}
	return "general"
}

// ClampImportance clamps v into [0, 1]. Out-of-range input is corrected,
// never rejected.
func ClampImportance(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// titleMaxLen is the prefix length, in runes, used when deriving a title
// from content.
const titleMaxLen = 50

// DeriveTitle returns title unchanged when set, otherwise the first 50
// characters of content with an ellipsis marker if truncated. Truncation
// counts runes, never splitting a multi-byte character.
func DeriveTitle(title, content string) string {
	if title != "" || content == "" {
		return title
	}
	runes := []rune(content)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen]) + "..."
	}
	return content
}

// HasConcept reports whether concepts contains tag, case-insensitively.
func HasConcept(concepts []string, tag string) bool {
	for _, c := range concepts {
		if strings.EqualFold(c, tag) {
			return true
		}
	}
	return false
}
