package store

import "context"

// enforceLimit removes the lowest-value memories when the total exceeds the
// configured maximum. Victims are chosen by ascending access count, ties
// broken by ascending creation epoch, so a frequently-read old memory
// outlives a never-read new one. Best effort: failures are logged and never
// surface to the insert that triggered the sweep.
func (s *SQLiteStore) enforceLimit(ctx context.Context) {
	count, err := s.Count(ctx)
	if err != nil {
		s.log.Warn("eviction: count failed", "err", err)
		return
	}
	if count <= s.maxMemories {
		return
	}

	excess := count - s.maxMemories
	_, err = s.db.ExecContext(ctx, `
		DELETE FROM memories WHERE id IN (
			SELECT id FROM memories
			ORDER BY accessed_count ASC, created_at_epoch ASC
			LIMIT ?
		)`, excess)
	if err != nil {
		s.log.Warn("eviction: delete failed", "err", err)
		return
	}

	s.log.Debug("evicted memories over limit", "removed", excess, "max", s.maxMemories)
}
