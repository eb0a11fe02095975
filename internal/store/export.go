package store

import (
	"context"

	"github.com/kyleliao/agent-recall/internal/model"
)

// ExportAll returns every stored memory in creation order, for file-level
// backup.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryCols+` FROM memories ORDER BY created_at_epoch ASC`)
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

// Import re-adds exported memories through the normal write path, so
// normalization, index sync, and eviction all apply. Ids are regenerated.
func (s *SQLiteStore) Import(ctx context.Context, memories []model.Memory) (int, error) {
	imported := 0
	for _, m := range memories {
		_, err := s.Add(ctx, AddParams{
			Content:         m.Content,
			Type:            m.Type,
			Title:           m.Title,
			Subtitle:        m.Subtitle,
			Facts:           m.Facts,
			Concepts:        m.Concepts,
			FilesRead:       m.FilesRead,
			FilesModified:   m.FilesModified,
			SessionID:       m.SessionID,
			Project:         m.Project,
			Category:        m.Category,
			Importance:      m.Importance,
			Tags:            m.Tags,
			Metadata:        m.Metadata,
			DiscoveryTokens: m.DiscoveryTokens,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
