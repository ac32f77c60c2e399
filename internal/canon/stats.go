package canon

import "context"

// GetStats reports corpus counts for the status command and health
// checks.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByType:         make(map[string]int),
		ByCategory:     make(map[string]int),
		EmbeddingModel: s.model,
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&stats.TotalArtifacts); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM artifacts GROUP BY type`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByType[t] = n
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM artifacts WHERE category IS NOT NULL GROUP BY category`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByCategory[c] = n
	}
	rows.Close()

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM retrieval_log`).Scan(&stats.TotalRetrievals); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifact_embeddings`).Scan(&stats.TotalEmbeddings); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts a
		WHERE NOT EXISTS (SELECT 1 FROM artifact_embeddings e WHERE e.artifact_id = a.artifact_id)`).Scan(&stats.MissingVectors)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
