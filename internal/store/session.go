package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kyleliao/agent-recall/internal/model"
)

// CreateSession creates a session for an external id, or continues an
// existing one: the first call creates the row with prompt_count 1, every
// later call for the same id increments prompt_count and overwrites the
// stored latest prompt. Duplicate ids are a continuation, not an error.
func (s *SQLiteStore) CreateSession(ctx context.Context, sessionID, project, userPrompt string) (*model.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE session_id = ?`, sessionID)
	existing, err := scanSession(row)
	if err == nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE sessions SET prompt_count = prompt_count + 1, user_prompt = ? WHERE session_id = ?`,
			nullable(userPrompt), sessionID)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		existing.PromptCount++
		existing.UserPrompt = userPrompt
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	startedAt, display, epoch := now()
	sess := &model.Session{
		ID:             s.newID(),
		SessionID:      sessionID,
		Project:        project,
		UserPrompt:     userPrompt,
		StartedAt:      startedAt,
		StartedAtEpoch: epoch,
		Status:         model.StatusActive,
		PromptCount:    1,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, session_id, project, user_prompt, started_at, started_at_epoch, status, prompt_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		sess.ID, sess.SessionID, nullable(project), nullable(userPrompt),
		display, epoch, model.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return sess, nil
}

// CompleteSession sets the session status and completion timestamp. Unknown
// statuses are normalized to "completed". Returns whether a row existed.
func (s *SQLiteStore) CompleteSession(ctx context.Context, sessionID, status string) (bool, error) {
	if !model.ValidStatuses[status] {
		status = model.StatusCompleted
	}

	_, display, epoch := now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, completed_at = ?, completed_at_epoch = ?
		WHERE session_id = ?`,
		status, display, epoch, sessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetSession returns the session with the given external id, or (nil, nil)
// when absent.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE session_id = ?`, sessionID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetRecentSessions returns the most recently started sessions, optionally
// filtered by project.
func (s *SQLiteStore) GetRecentSessions(ctx context.Context, limit int, project string) ([]model.Session, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + sessionCols + ` FROM sessions`
	var args []interface{}
	if project != "" {
		query += " WHERE project = ?"
		args = append(args, project)
	}
	query += " ORDER BY started_at_epoch DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// AddUserPrompt appends a prompt to a session's searchable prompt history.
func (s *SQLiteStore) AddUserPrompt(ctx context.Context, sessionID string, promptNumber int, promptText string) (*model.UserPrompt, error) {
	if promptText == "" {
		return nil, fmt.Errorf("prompt_text is required")
	}

	createdAt, display, epoch := now()
	p := &model.UserPrompt{
		ID:             s.newID(),
		SessionID:      sessionID,
		PromptNumber:   promptNumber,
		PromptText:     promptText,
		CreatedAt:      createdAt,
		CreatedAtEpoch: epoch,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_prompts (id, session_id, prompt_number, prompt_text, created_at, created_at_epoch)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.SessionID, p.PromptNumber, p.PromptText, display, epoch)
	if err != nil {
		return nil, fmt.Errorf("insert prompt: %w", err)
	}

	return p, nil
}

// SearchPrompts runs a ranked full-text query over the prompt shadow index,
// falling back to a substring scan ordered by recency when the engine
// rejects the query.
func (s *SQLiteStore) SearchPrompts(ctx context.Context, query string, limit int) ([]model.UserPrompt, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixCols("p.", promptCols)+`
		FROM user_prompts p
		JOIN prompts_fts fts ON p.rowid = fts.rowid
		WHERE prompts_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?`, query, limit)
	if err != nil {
		s.log.Warn("prompt fts failed, using substring scan", "err", err)
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+promptCols+` FROM user_prompts
			WHERE prompt_text LIKE ?
			ORDER BY created_at_epoch DESC
			LIMIT ?`, "%"+query+"%", limit)
		if err != nil {
			return nil, err
		}
	}
	defer rows.Close()

	var prompts []model.UserPrompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

// AddSummary appends a session summary. Summaries are append-only; there is
// no update path.
func (s *SQLiteStore) AddSummary(ctx context.Context, p SummaryParams) (*model.SessionSummary, error) {
	if p.SessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	createdAt, display, epoch := now()
	sum := &model.SessionSummary{
		ID:              s.newID(),
		SessionID:       p.SessionID,
		Project:         p.Project,
		Request:         p.Request,
		Investigated:    p.Investigated,
		Learned:         p.Learned,
		Completed:       p.Completed,
		NextSteps:       p.NextSteps,
		Notes:           p.Notes,
		FilesRead:       orEmpty(p.FilesRead),
		FilesEdited:     orEmpty(p.FilesEdited),
		DiscoveryTokens: p.DiscoveryTokens,
		CreatedAt:       createdAt,
		CreatedAtEpoch:  epoch,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_summaries (
			id, session_id, project, request, investigated, learned,
			completed, next_steps, notes, files_read_json, files_edited_json,
			discovery_tokens, created_at, created_at_epoch
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.SessionID, nullable(sum.Project),
		sum.Request, sum.Investigated, sum.Learned,
		sum.Completed, sum.NextSteps, sum.Notes,
		marshalList(sum.FilesRead), marshalList(sum.FilesEdited),
		sum.DiscoveryTokens, display, epoch)
	if err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}

	return sum, nil
}

// GetSummaries returns summaries newest-first, optionally filtered by
// session and project.
func (s *SQLiteStore) GetSummaries(ctx context.Context, sessionID, project string, limit int) ([]model.SessionSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + summaryCols + ` FROM session_summaries WHERE 1=1`
	var args []interface{}
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}
	query += " ORDER BY created_at_epoch DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.SessionSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// SearchSummaries runs a ranked full-text query over the summary shadow
// index, falling back to a substring scan across the narrative fields.
func (s *SQLiteStore) SearchSummaries(ctx context.Context, query string, limit int) ([]model.SessionSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixCols("s.", summaryCols)+`
		FROM session_summaries s
		JOIN summaries_fts fts ON s.rowid = fts.rowid
		WHERE summaries_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?`, query, limit)
	if err != nil {
		s.log.Warn("summary fts failed, using substring scan", "err", err)
		like := "%" + query + "%"
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+summaryCols+` FROM session_summaries
			WHERE request LIKE ? OR investigated LIKE ? OR learned LIKE ?
			   OR completed LIKE ? OR next_steps LIKE ? OR notes LIKE ?
			ORDER BY created_at_epoch DESC
			LIMIT ?`, like, like, like, like, like, like, limit)
		if err != nil {
			return nil, err
		}
	}
	defer rows.Close()

	var summaries []model.SessionSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
