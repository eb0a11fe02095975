package store

import (
	"context"
	"sort"
	"strings"

	"github.com/kyleliao/agent-recall/internal/model"
)

// SearchParams holds parameters for ranked memory search.
type SearchParams struct {
	Query   string
	Type    string
	Project string
	Limit   int
}

// Search runs a ranked full-text query over the memory shadow index,
// optionally pre-filtered by type and project. When the engine rejects the
// query (malformed syntax, missing shadow table) it falls back to a
// deterministic term-count scorer; the caller never sees the failure.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Memory, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT ` + prefixCols("m.", memoryCols) + `
		FROM memories m
		JOIN memories_fts fts ON m.rowid = fts.rowid
		WHERE memories_fts MATCH ?`
	args := []interface{}{p.Query}

	if p.Type != "" {
		query += " AND m.type = ?"
		args = append(args, p.Type)
	}
	if p.Project != "" {
		query += " AND m.project = ?"
		args = append(args, p.Project)
	}

	query += " ORDER BY fts.rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Warn("fts search failed, using fallback scorer", "err", err)
		return s.searchFallback(ctx, p.Query, limit, p.Type, p.Project)
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
	if err := rows.Err(); err != nil {
		s.log.Warn("fts search failed, using fallback scorer", "err", err)
		return s.searchFallback(ctx, p.Query, limit, p.Type, p.Project)
	}

	return memories, nil
}

// searchFallback is the deterministic scorer used when FTS is unavailable:
// each candidate scores (distinct query terms present anywhere in its
// searchable text) x importance; zero-score candidates are discarded.
func (s *SQLiteStore) searchFallback(ctx context.Context, query string, limit int, typ, project string) ([]model.Memory, error) {
	terms := distinctTerms(query)

	candidates, err := s.List(ctx, ListParams{Type: typ, Project: project})
	if err != nil {
		return nil, err
	}

	type scored struct {
		memory model.Memory
		score  float64
	}
	var results []scored

	for _, m := range candidates {
		searchable := strings.ToLower(strings.Join([]string{
			m.Title, m.Subtitle, m.Content,
			strings.Join(m.Facts, " "), strings.Join(m.Tags, " "),
		}, " "))

		matches := 0
		for _, term := range terms {
			if strings.Contains(searchable, term) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		results = append(results, scored{memory: m, score: float64(matches) * m.Importance})
	}

	// Candidates arrive ordered importance-then-recency; a stable sort keeps
	// that as the tiebreak.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	memories := make([]model.Memory, 0, len(results))
	for _, r := range results {
		memories = append(memories, r.memory)
	}
	return memories, nil
}

func distinctTerms(query string) []string {
	seen := map[string]bool{}
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return terms
}

// SearchByFile returns memories that read or modified the given path,
// ordered by importance then recency. This is a membership scan over the
// serialized file lists, not a ranked search.
func (s *SQLiteStore) SearchByFile(ctx context.Context, path string, limit int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := `%"` + path + `"%`

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryCols+` FROM memories
		WHERE files_read_json LIKE ? OR files_modified_json LIKE ?
		ORDER BY importance DESC, created_at_epoch DESC
		LIMIT ?`, pattern, pattern, limit)
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

// SearchByConcept returns memories carrying the given concept tag, ordered
// by importance then recency.
func (s *SQLiteStore) SearchByConcept(ctx context.Context, concept string, limit int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryCols+` FROM memories
		WHERE concepts_json LIKE ?
		ORDER BY importance DESC, created_at_epoch DESC
		LIMIT ?`, `%"`+concept+`"%`, limit)
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

// prefixCols qualifies each column in a comma-separated list with the given
// table alias.
func prefixCols(prefix, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
