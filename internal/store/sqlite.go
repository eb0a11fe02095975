package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/kyleliao/agent-recall/internal/model"
)

// DefaultMaxMemories is the retention limit used when Options leaves it unset.
const DefaultMaxMemories = 1000

// Options configures a SQLiteStore. Path is resolved by the caller once at
// construction; the store never consults the environment.
type Options struct {
	Path        string
	MaxMemories int
	Logger      *slog.Logger
}

// SQLiteStore implements Store backed by a single SQLite file with FTS5
// shadow indexes.
type SQLiteStore struct {
	db          *sql.DB
	maxMemories int
	log         *slog.Logger
	entropy     *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// New opens or creates the database at opts.Path, creating the containing
// directory if absent, and brings the schema to the latest version.
func New(opts Options) (*SQLiteStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	if opts.MaxMemories <= 0 {
		opts.MaxMemories = DefaultMaxMemories
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", opts.Path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:          db,
		maxMemories: opts.MaxMemories,
		log:         opts.Logger,
		entropy:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// now returns the display timestamp and its epoch-millisecond twin, derived
// from the same instant so the two always agree.
func now() (time.Time, string, int64) {
	t := time.Now().UTC()
	return t, t.Format(time.RFC3339Nano), t.UnixMilli()
}

func marshalList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func marshalMap(v map[string]any) string {
	if v == nil {
		v = map[string]any{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func unmarshalList(s string) []string {
	out := []string{}
	if s != "" {
		json.Unmarshal([]byte(s), &out)
	}
	return out
}

func unmarshalMap(s string) map[string]any {
	out := map[string]any{}
	if s != "" {
		json.Unmarshal([]byte(s), &out)
	}
	return out
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const memoryCols = `id, type, title, subtitle, content, facts_json, concepts_json,
	files_read_json, files_modified_json, session_id, project,
	category, importance, tags_json, metadata_json,
	created_at, created_at_epoch, accessed_count, discovery_tokens`

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var facts, concepts, filesRead, filesModified, tags, metadata string
	var sessionID, project sql.NullString
	var createdAt string

	err := row.Scan(
		&m.ID, &m.Type, &m.Title, &m.Subtitle, &m.Content, &facts, &concepts,
		&filesRead, &filesModified, &sessionID, &project,
		&m.Category, &m.Importance, &tags, &metadata,
		&createdAt, &m.CreatedAtEpoch, &m.AccessedCount, &m.DiscoveryTokens,
	)
	if err != nil {
		return m, err
	}

	m.Facts = unmarshalList(facts)
	m.Concepts = unmarshalList(concepts)
	m.FilesRead = unmarshalList(filesRead)
	m.FilesModified = unmarshalList(filesModified)
	m.Tags = unmarshalList(tags)
	m.Metadata = unmarshalMap(metadata)
	if sessionID.Valid {
		m.SessionID = sessionID.String
	}
	if project.Valid {
		m.Project = project.String
	}
	m.CreatedAt = parseTimestamp(createdAt)

	return m, nil
}

const sessionCols = `id, session_id, project, user_prompt,
	started_at, started_at_epoch, completed_at, completed_at_epoch, status, prompt_count`

func scanSession(row scanner) (model.Session, error) {
	var sess model.Session
	var project, userPrompt, completedAt sql.NullString
	var completedAtEpoch sql.NullInt64
	var startedAt string

	err := row.Scan(
		&sess.ID, &sess.SessionID, &project, &userPrompt,
		&startedAt, &sess.StartedAtEpoch, &completedAt, &completedAtEpoch,
		&sess.Status, &sess.PromptCount,
	)
	if err != nil {
		return sess, err
	}

	if project.Valid {
		sess.Project = project.String
	}
	if userPrompt.Valid {
		sess.UserPrompt = userPrompt.String
	}
	sess.StartedAt = parseTimestamp(startedAt)
	if completedAt.Valid {
		t := parseTimestamp(completedAt.String)
		sess.CompletedAt = &t
	}
	if completedAtEpoch.Valid {
		sess.CompletedAtEpoch = completedAtEpoch.Int64
	}

	return sess, nil
}

const summaryCols = `id, session_id, project, request, investigated, learned,
	completed, next_steps, notes, files_read_json, files_edited_json,
	discovery_tokens, created_at, created_at_epoch`

func scanSummary(row scanner) (model.SessionSummary, error) {
	var sum model.SessionSummary
	var project sql.NullString
	var filesRead, filesEdited, createdAt string

	err := row.Scan(
		&sum.ID, &sum.SessionID, &project, &sum.Request, &sum.Investigated, &sum.Learned,
		&sum.Completed, &sum.NextSteps, &sum.Notes, &filesRead, &filesEdited,
		&sum.DiscoveryTokens, &createdAt, &sum.CreatedAtEpoch,
	)
	if err != nil {
		return sum, err
	}

	if project.Valid {
		sum.Project = project.String
	}
	sum.FilesRead = unmarshalList(filesRead)
	sum.FilesEdited = unmarshalList(filesEdited)
	sum.CreatedAt = parseTimestamp(createdAt)

	return sum, nil
}

const promptCols = `id, session_id, prompt_number, prompt_text, created_at, created_at_epoch`

func scanPrompt(row scanner) (model.UserPrompt, error) {
	var p model.UserPrompt
	var createdAt string

	err := row.Scan(&p.ID, &p.SessionID, &p.PromptNumber, &p.PromptText, &createdAt, &p.CreatedAtEpoch)
	if err != nil {
		return p, err
	}
	p.CreatedAt = parseTimestamp(createdAt)

	return p, nil
}
