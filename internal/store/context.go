package store

import (
	"context"
	"time"

	"github.com/kyleliao/agent-recall/internal/model"
)

// ContextParams holds parameters for session-start context assembly.
type ContextParams struct {
	Project          string
	Limit            int
	IncludeSummaries bool
	Days             int // time window lower bound, in days before now
}

// ContextResult is the cheap, bounded view injected at session start:
// an index projection of recent observations plus the latest summary.
type ContextResult struct {
	Observations     []model.MemoryIndex   `json:"observations"`
	ObservationCount int                   `json:"observation_count"`
	LastSummary      *model.SessionSummary `json:"last_summary,omitempty"`
}

// TimelineParams holds parameters for the timeline view.
type TimelineParams struct {
	CenterEpoch int64 // epoch ms; 0 means now
	WindowHours int
	Project     string
	Limit       int
}

// TimelineResult holds full records whose creation epoch falls within the
// symmetric window around the center point, each list newest-first and
// independently capped.
type TimelineResult struct {
	CenterEpoch  int64                  `json:"center_epoch"`
	WindowHours  int                    `json:"window_hours"`
	Observations []model.Memory         `json:"observations"`
	Summaries    []model.SessionSummary `json:"summaries"`
}

// ContextForSession returns the index projection of memories created within
// the last p.Days days for the project, plus the single most recent summary
// when requested. Composed purely from the store's own read views.
func (s *SQLiteStore) ContextForSession(ctx context.Context, p ContextParams) (*ContextResult, error) {
	days := p.Days
	if days <= 0 {
		days = 90
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	sinceEpoch := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()

	observations, err := s.ListIndex(ctx, IndexParams{
		Project:    p.Project,
		SinceEpoch: sinceEpoch,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	if observations == nil {
		observations = []model.MemoryIndex{}
	}

	result := &ContextResult{
		Observations:     observations,
		ObservationCount: len(observations),
	}

	if p.IncludeSummaries {
		summaries, err := s.GetSummaries(ctx, "", p.Project, 1)
		if err != nil {
			return nil, err
		}
		if len(summaries) > 0 {
			result.LastSummary = &summaries[0]
		}
	}

	return result, nil
}

// Timeline returns full memory and summary records created within
// [center - window, center + window], inclusive on both ends.
func (s *SQLiteStore) Timeline(ctx context.Context, p TimelineParams) (*TimelineResult, error) {
	center := p.CenterEpoch
	if center == 0 {
		center = time.Now().UTC().UnixMilli()
	}
	windowHours := p.WindowHours
	if windowHours <= 0 {
		windowHours = 24
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	windowMs := int64(windowHours) * 3600 * 1000
	start, end := center-windowMs, center+windowMs

	result := &TimelineResult{
		CenterEpoch:  center,
		WindowHours:  windowHours,
		Observations: []model.Memory{},
		Summaries:    []model.SessionSummary{},
	}

	obsQuery := `SELECT ` + memoryCols + ` FROM memories WHERE created_at_epoch BETWEEN ? AND ?`
	obsArgs := []interface{}{start, end}
	if p.Project != "" {
		obsQuery += " AND project = ?"
		obsArgs = append(obsArgs, p.Project)
	}
	obsQuery += " ORDER BY created_at_epoch DESC LIMIT ?"
	obsArgs = append(obsArgs, limit)

	rows, err := s.db.QueryContext(ctx, obsQuery, obsArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		result.Observations = append(result.Observations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sumQuery := `SELECT ` + summaryCols + ` FROM session_summaries WHERE created_at_epoch BETWEEN ? AND ?`
	sumArgs := []interface{}{start, end}
	if p.Project != "" {
		sumQuery += " AND project = ?"
		sumArgs = append(sumArgs, p.Project)
	}
	sumQuery += " ORDER BY created_at_epoch DESC LIMIT ?"
	sumArgs = append(sumArgs, limit)

	sumRows, err := s.db.QueryContext(ctx, sumQuery, sumArgs...)
	if err != nil {
		return nil, err
	}
	defer sumRows.Close()
	for sumRows.Next() {
		sum, err := scanSummary(sumRows)
		if err != nil {
			return nil, err
		}
		result.Summaries = append(result.Summaries, sum)
	}

	return result, sumRows.Err()
}
