package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// schemaVersion is the latest on-disk layout version.
const schemaVersion = 2

// migrate brings the database to the latest schema version. Safe to call on
// every open: table creation is IF NOT EXISTS and each migration step checks
// for existing structures before creating them.
func (s *SQLiteStore) migrate() error {
	if err := s.initSchema(); err != nil {
		return err
	}

	version := s.currentVersion()

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("v1: %w", err)
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return fmt.Errorf("v2: %w", err)
		}
	}

	// Indexes cover columns that v1 may only just have added, so they are
	// created after the version migrations, not with the tables.
	return s.ensureIndexes()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS memories (
		id                  TEXT PRIMARY KEY,
		type                TEXT NOT NULL DEFAULT 'change',
		title               TEXT NOT NULL DEFAULT '',
		subtitle            TEXT NOT NULL DEFAULT '',
		content             TEXT NOT NULL,
		facts_json          TEXT DEFAULT '[]',
		concepts_json       TEXT DEFAULT '[]',
		files_read_json     TEXT DEFAULT '[]',
		files_modified_json TEXT DEFAULT '[]',
		session_id          TEXT,
		project             TEXT,
		category            TEXT NOT NULL DEFAULT 'general',
		importance          REAL DEFAULT 0.5,
		tags_json           TEXT DEFAULT '[]',
		metadata_json       TEXT DEFAULT '{}',
		created_at          TEXT NOT NULL,
		created_at_epoch    INTEGER NOT NULL,
		accessed_count      INTEGER DEFAULT 0,
		discovery_tokens    INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id                 TEXT PRIMARY KEY,
		session_id         TEXT UNIQUE NOT NULL,
		project            TEXT,
		user_prompt        TEXT,
		started_at         TEXT NOT NULL,
		started_at_epoch   INTEGER NOT NULL,
		completed_at       TEXT,
		completed_at_epoch INTEGER,
		status             TEXT NOT NULL DEFAULT 'active',
		prompt_count       INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS session_summaries (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL,
		project          TEXT,
		request          TEXT,
		investigated     TEXT,
		learned          TEXT,
		completed        TEXT,
		next_steps       TEXT,
		notes            TEXT,
		files_read_json  TEXT DEFAULT '[]',
		files_edited_json TEXT DEFAULT '[]',
		discovery_tokens INTEGER DEFAULT 0,
		created_at       TEXT NOT NULL,
		created_at_epoch INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_prompts (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL,
		prompt_number    INTEGER NOT NULL,
		prompt_text      TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		created_at_epoch INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) ensureIndexes() error {
	indexes := `
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);
	CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at_epoch DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_session ON memories(session_id);
	CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project);

	CREATE INDEX IF NOT EXISTS idx_sessions_session_id ON sessions(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);

	CREATE INDEX IF NOT EXISTS idx_summaries_session ON session_summaries(session_id);
	CREATE INDEX IF NOT EXISTS idx_summaries_project ON session_summaries(project);

	CREATE INDEX IF NOT EXISTS idx_prompts_session ON user_prompts(session_id);
	`
	_, err := s.db.Exec(indexes)
	return err
}

// currentVersion reads the schema version marker. An absent or empty marker
// table means version 0.
func (s *SQLiteStore) currentVersion() int {
	var version sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0
	}
	return int(version.Int64)
}

// migrateV1 adds the rich columns to a legacy flat memories table and
// backfills the epoch timestamp from the display timestamp.
func (s *SQLiteStore) migrateV1() error {
	s.log.Debug("running migration v1")

	existing, err := s.tableColumns("memories")
	if err != nil {
		return err
	}

	newColumns := []struct{ name, def string }{
		{"type", "TEXT NOT NULL DEFAULT 'change'"},
		{"title", "TEXT NOT NULL DEFAULT ''"},
		{"subtitle", "TEXT NOT NULL DEFAULT ''"},
		{"facts_json", "TEXT DEFAULT '[]'"},
		{"concepts_json", "TEXT DEFAULT '[]'"},
		{"files_read_json", "TEXT DEFAULT '[]'"},
		{"files_modified_json", "TEXT DEFAULT '[]'"},
		{"session_id", "TEXT"},
		{"project", "TEXT"},
		{"metadata_json", "TEXT DEFAULT '{}'"},
		{"created_at_epoch", "INTEGER"},
		{"discovery_tokens", "INTEGER DEFAULT 0"},
	}

	for _, col := range newColumns {
		if existing[col.name] {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE memories ADD COLUMN %s %s", col.name, col.def)); err != nil {
			// A previously crashed migration may have added it already;
			// that is success. Anything else is a real failure.
			if !structureExists(err) {
				return fmt.Errorf("add column %s: %w", col.name, err)
			}
			s.log.Warn("migration v1: column exists, skipping", "column", col.name, "err", err)
		}
	}

	_, err = s.db.Exec(`
		UPDATE memories
		SET created_at_epoch = CAST(strftime('%s', created_at) AS INTEGER) * 1000
		WHERE created_at_epoch IS NULL`)
	if err != nil {
		return fmt.Errorf("backfill epoch: %w", err)
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (1)`)
	return err
}

// migrateV2 creates the FTS5 shadow tables, the triggers that keep them
// synchronized with their source tables, and backfills them from existing
// rows. Updates go through delete-then-reinsert so the shadow entry is never
// patched in place.
func (s *SQLiteStore) migrateV2() error {
	s.log.Debug("running migration v2")

	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
			title, subtitle, content, facts_json, concepts_json,
			content='memories', content_rowid='rowid'
		)`,
		`INSERT OR IGNORE INTO memories_fts(rowid, title, subtitle, content, facts_json, concepts_json)
			SELECT rowid, title, subtitle, content, facts_json, concepts_json FROM memories`,
		`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
			INSERT INTO memories_fts(rowid, title, subtitle, content, facts_json, concepts_json)
			VALUES (new.rowid, new.title, new.subtitle, new.content, new.facts_json, new.concepts_json);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, title, subtitle, content, facts_json, concepts_json)
			VALUES ('delete', old.rowid, old.title, old.subtitle, old.content, old.facts_json, old.concepts_json);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, title, subtitle, content, facts_json, concepts_json)
			VALUES ('delete', old.rowid, old.title, old.subtitle, old.content, old.facts_json, old.concepts_json);
			INSERT INTO memories_fts(rowid, title, subtitle, content, facts_json, concepts_json)
			VALUES (new.rowid, new.title, new.subtitle, new.content, new.facts_json, new.concepts_json);
		END`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS summaries_fts USING fts5(
			request, investigated, learned, completed, next_steps, notes,
			content='session_summaries', content_rowid='rowid'
		)`,
		`INSERT OR IGNORE INTO summaries_fts(rowid, request, investigated, learned, completed, next_steps, notes)
			SELECT rowid, request, investigated, learned, completed, next_steps, notes FROM session_summaries`,
		`CREATE TRIGGER IF NOT EXISTS summaries_ai AFTER INSERT ON session_summaries BEGIN
			INSERT INTO summaries_fts(rowid, request, investigated, learned, completed, next_steps, notes)
			VALUES (new.rowid, new.request, new.investigated, new.learned, new.completed, new.next_steps, new.notes);
		END`,
		`CREATE TRIGGER IF NOT EXISTS summaries_ad AFTER DELETE ON session_summaries BEGIN
			INSERT INTO summaries_fts(summaries_fts, rowid, request, investigated, learned, completed, next_steps, notes)
			VALUES ('delete', old.rowid, old.request, old.investigated, old.learned, old.completed, old.next_steps, old.notes);
		END`,
		`CREATE TRIGGER IF NOT EXISTS summaries_au AFTER UPDATE ON session_summaries BEGIN
			INSERT INTO summaries_fts(summaries_fts, rowid, request, investigated, learned, completed, next_steps, notes)
			VALUES ('delete', old.rowid, old.request, old.investigated, old.learned, old.completed, old.next_steps, old.notes);
			INSERT INTO summaries_fts(rowid, request, investigated, learned, completed, next_steps, notes)
			VALUES (new.rowid, new.request, new.investigated, new.learned, new.completed, new.next_steps, new.notes);
		END`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS prompts_fts USING fts5(
			prompt_text,
			content='user_prompts', content_rowid='rowid'
		)`,
		`INSERT OR IGNORE INTO prompts_fts(rowid, prompt_text)
			SELECT rowid, prompt_text FROM user_prompts`,
		`CREATE TRIGGER IF NOT EXISTS prompts_ai AFTER INSERT ON user_prompts BEGIN
			INSERT INTO prompts_fts(rowid, prompt_text) VALUES (new.rowid, new.prompt_text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS prompts_ad AFTER DELETE ON user_prompts BEGIN
			INSERT INTO prompts_fts(prompts_fts, rowid, prompt_text) VALUES ('delete', old.rowid, old.prompt_text);
		END`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			if structureExists(err) {
				s.log.Warn("migration v2: structure exists, skipping", "err", err)
				continue
			}
			return err
		}
	}

	_, err := s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (2)`)
	return err
}

func (s *SQLiteStore) tableColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// structureExists reports whether err indicates an already-created table,
// trigger, or column. Migrations may legitimately run against a partially
// migrated file after a crash.
func structureExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column")
}
