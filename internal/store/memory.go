package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kyleliao/agent-recall/internal/model"
)

// Add validates and normalizes the fields, persists the memory, and enforces
// the retention limit. The FTS shadow entry is written by trigger inside the
// same statement, so the index never diverges from the table.
func (s *SQLiteStore) Add(ctx context.Context, p AddParams) (*model.Memory, error) {
	if strings.TrimSpace(p.Content) == "" {
		return nil, fmt.Errorf("content is required")
	}

	createdAt, display, epoch := now()

	m := &model.Memory{
		ID:              s.newID(),
		Type:            model.NormalizeType(p.Type),
		Title:           model.DeriveTitle(p.Title, p.Content),
		Subtitle:        p.Subtitle,
		Content:         p.Content,
		Facts:           orEmpty(p.Facts),
		Concepts:        orEmpty(p.Concepts),
		FilesRead:       orEmpty(p.FilesRead),
		FilesModified:   orEmpty(p.FilesModified),
		SessionID:       p.SessionID,
		Project:         p.Project,
		Category:        model.NormalizeCategory(p.Category),
		Importance:      model.ClampImportance(p.Importance),
		Tags:            orEmpty(p.Tags),
		Metadata:        p.Metadata,
		CreatedAt:       createdAt,
		CreatedAtEpoch:  epoch,
		AccessedCount:   0,
		DiscoveryTokens: p.DiscoveryTokens,
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (
			id, type, title, subtitle, content, facts_json, concepts_json,
			files_read_json, files_modified_json, session_id, project,
			category, importance, tags_json, metadata_json,
			created_at, created_at_epoch, accessed_count, discovery_tokens
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.Type, m.Title, m.Subtitle, m.Content,
		marshalList(m.Facts), marshalList(m.Concepts),
		marshalList(m.FilesRead), marshalList(m.FilesModified),
		nullable(m.SessionID), nullable(m.Project),
		m.Category, m.Importance, marshalList(m.Tags), marshalMap(m.Metadata),
		display, epoch, m.DiscoveryTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	s.enforceLimit(ctx)

	return m, nil
}

// Get returns the memory with the given id, or (nil, nil) when absent. On a
// hit the access count is incremented inside the same transaction, and the
// returned record reflects the read that just happened.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Memory, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+memoryCols+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE memories SET accessed_count = accessed_count + 1 WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	m.AccessedCount++
	return &m, nil
}

// List returns memories matching the filters, ordered by importance
// descending then creation time descending.
func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Memory, error) {
	where := []string{"1=1"}
	var args []interface{}

	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, p.Type)
	}
	if p.Category != "" {
		where = append(where, "category = ?")
		args = append(args, p.Category)
	}
	if p.Project != "" {
		where = append(where, "project = ?")
		args = append(args, p.Project)
	}
	if p.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, p.SessionID)
	}
	if p.MinImportance > 0 {
		where = append(where, "importance >= ?")
		args = append(args, p.MinImportance)
	}
	if p.SinceEpoch > 0 {
		where = append(where, "created_at_epoch >= ?")
		args = append(args, p.SinceEpoch)
	}
	if len(p.Concepts) > 0 {
		conds := make([]string, 0, len(p.Concepts))
		for _, c := range p.Concepts {
			conds = append(conds, "concepts_json LIKE ?")
			args = append(args, `%"`+c+`"%`)
		}
		where = append(where, "("+strings.Join(conds, " OR ")+")")
	}

	query := `SELECT ` + memoryCols + ` FROM memories WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY importance DESC, created_at_epoch DESC`
	if p.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, p.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// ListIndex returns the minimal index projection of memories matching the
// project/time filters.
func (s *SQLiteStore) ListIndex(ctx context.Context, p IndexParams) ([]model.MemoryIndex, error) {
	memories, err := s.List(ctx, ListParams{
		Project:    p.Project,
		SinceEpoch: p.SinceEpoch,
		Limit:      p.Limit,
	})
	if err != nil {
		return nil, err
	}

	index := make([]model.MemoryIndex, 0, len(memories))
	for i := range memories {
		index = append(index, memories[i].Index())
	}
	return index, nil
}

// Update applies the textually-present fields of p. Enum fields that fail
// validation are silently dropped while the rest of the update still
// applies. Returns (nil, nil) when the id does not exist.
func (s *SQLiteStore) Update(ctx context.Context, id string, p UpdateParams) (*model.Memory, error) {
	var sets []string
	var args []interface{}

	if p.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *p.Content)
	}
	if p.Type != nil && model.ValidTypes[*p.Type] {
		sets = append(sets, "type = ?")
		args = append(args, *p.Type)
	}
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Subtitle != nil {
		sets = append(sets, "subtitle = ?")
		args = append(args, *p.Subtitle)
	}
	if p.Facts != nil {
		sets = append(sets, "facts_json = ?")
		args = append(args, marshalList(p.Facts))
	}
	if p.Concepts != nil {
		sets = append(sets, "concepts_json = ?")
		args = append(args, marshalList(p.Concepts))
	}
	if p.Category != nil && model.ValidCategories[*p.Category] {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, model.ClampImportance(*p.Importance))
	}
	if p.Tags != nil {
		sets = append(sets, "tags_json = ?")
		args = append(args, marshalList(p.Tags))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if len(sets) > 0 {
		args = append(args, id)
		res, err := tx.ExecContext(ctx,
			`UPDATE memories SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, nil
		}
	}

	row := tx.QueryRowContext(ctx, `SELECT `+memoryCols+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Delete removes the memory with the given id. Returns whether a row was
// actually removed, so a repeated delete reports false.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Count returns the total number of stored memories.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n)
	return n, err
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
