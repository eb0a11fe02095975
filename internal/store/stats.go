package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string         `json:"db_path"`
	DBSizeBytes int64          `json:"db_size_bytes"`
	Memories    int            `json:"memories"`
	Sessions    int            `json:"sessions"`
	Summaries   int            `json:"summaries"`
	Prompts     int            `json:"prompts"`
	Projects    []ProjectStats `json:"projects"`
}

// ProjectStats holds per-project memory counts.
type ProjectStats struct {
	Project  string `json:"project"`
	Memories int    `json:"memories"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.Memories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&st.Sessions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_summaries`).Scan(&st.Summaries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_prompts`).Scan(&st.Prompts)

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return st, err
	}
	st.Projects = projects

	return st, nil
}

// ListProjects returns distinct projects with their memory counts, most
// populated first.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]ProjectStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project, COUNT(*) AS cnt
		FROM memories WHERE project IS NOT NULL
		GROUP BY project ORDER BY cnt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []ProjectStats
	for rows.Next() {
		var p ProjectStats
		if err := rows.Scan(&p.Project, &p.Memories); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
