package canon

import (
	"context"
	"database/sql"
	"errors"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"

	"github.com/whyhi/wos/internal/logger"
)

// Providers cap input length; anything past this adds nothing to the
// vector anyway.
const embedTextCap = 30000

var errNoEmbedder = errors.New("no embedder configured")

// EmbedArtifact generates and stores the embedding for an artifact.
// Provider failures are logged and reported as false, never propagated.
func (s *Store) EmbedArtifact(ctx context.Context, artifactID, text string) bool {
	if s.embedder == nil {
		return false
	}

	if len(text) > embedTextCap {
		text = text[:embedTextCap]
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		logger.Error("embedding generation failed", "artifact_id", artifactID, "error", err)
		return false
	}

	return s.StoreEmbedding(ctx, artifactID, embedding)
}

// StoreEmbedding upserts the vector for an artifact; one embedding per
// artifact.
func (s *Store) StoreEmbedding(ctx context.Context, artifactID string, embedding []float32) bool {
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		logger.Error("store embedding failed", "artifact_id", artifactID, "error", err)
		return false
	}

	var rowid int64
	var checksum sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT rowid, checksum FROM artifacts WHERE artifact_id = ?`, artifactID).Scan(&rowid, &checksum)
	if err != nil {
		logger.Error("store embedding failed", "artifact_id", artifactID, "error", err)
		return false
	}

	if _, err := s.db.ExecContext(ctx, queryDeleteVec, rowid); err != nil {
		logger.Error("store embedding failed", "artifact_id", artifactID, "error", err)
		return false
	}
	if _, err := s.db.ExecContext(ctx, queryInsertVec, rowid, blob); err != nil {
		logger.Error("store embedding failed", "artifact_id", artifactID, "error", err)
		return false
	}

	if _, err := s.db.ExecContext(ctx, queryUpsertEmbeddingMeta, artifactID, s.model, len(embedding), checksum.String); err != nil {
		logger.Error("store embedding failed", "artifact_id", artifactID, "error", err)
		return false
	}

	logger.Debug("embedding stored", "artifact_id", artifactID, "dimension", len(embedding))
	return true
}

func (s *Store) deleteEmbedding(artifactID string) {
	var rowid int64
	err := s.db.QueryRow(queryArtifactRowid, artifactID).Scan(&rowid)
	if err != nil {
		return
	}

	if _, err := s.db.Exec(queryDeleteVec, rowid); err != nil {
		logger.Warn("delete embedding failed", "artifact_id", artifactID, "error", err)
		return
	}
	if _, err := s.db.Exec(queryDeleteEmbeddingMeta, artifactID); err != nil {
		logger.Warn("delete embedding failed", "artifact_id", artifactID, "error", err)
		return
	}

	logger.Debug("stale embedding dropped", "artifact_id", artifactID)
}

func (s *Store) HasEmbedding(ctx context.Context, artifactID string) bool {
	var count int
	if err := s.db.QueryRowContext(ctx, queryHasEmbedding, artifactID).Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// SemanticSearch ranks artifacts by cosine similarity to the query.
// Results below MinSimilarity (default 0.5) are dropped and the rest
// sorted by similarity descending. The vec0 scan is KNN over the whole
// embedding set; at a larger corpus this belongs behind an ANN index
// with the same signature.
func (s *Store) SemanticSearch(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	if s.embedder == nil {
		return nil, errNoEmbedder
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	minSimilarity := opts.MinSimilarity
	if minSimilarity == 0 {
		minSimilarity = 0.5
	}

	text := query
	if len(text) > embedTextCap {
		text = text[:embedTextCap]
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, err
	}

	q := `SELECT a.artifact_id, a.title, a.type, a.category, a.summary, a.source, a.created_at, v.distance
		FROM vec_artifacts v
		JOIN artifacts a ON a.rowid = v.artifact_rowid
		WHERE v.embedding MATCH ?
		  AND k = ?`
	args := []any{blob, limit}

	if opts.Type != "" {
		q += " AND a.type = ?"
		args = append(args, opts.Type)
	}
	if opts.Category != "" {
		q += " AND a.category = ?"
		args = append(args, opts.Category)
	}

	q += " ORDER BY v.distance"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var category, summary, source sql.NullString
		var distance float64
		if err := rows.Scan(&r.ArtifactID, &r.Title, &r.Type, &category, &summary, &source, &r.CreatedAt, &distance); err != nil {
			return nil, err
		}

		similarity := 1 - distance
		if similarity < minSimilarity {
			continue
		}

		r.Category = category.String
		r.Summary = summary.String
		r.Source = source.String
		r.Similarity = similarity
		r.RelevanceScore = similarity * 10

		if opts.Retrieval.RequestID != "" || opts.Retrieval.ExecutionID != "" {
			s.logRetrieval(ctx, r.ArtifactID, "semantic_search", opts.Retrieval, r.RelevanceScore)
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// ReindexAll regenerates embeddings for every artifact, stale or not.
func (s *Store) ReindexAll(ctx context.Context) ReindexStats {
	stats := ReindexStats{}

	if s.embedder == nil {
		logger.Error("reindex requested without embedder")
		return stats
	}

	rows, err := s.db.QueryContext(ctx, `SELECT artifact_id, title, summary, content FROM artifacts`)
	if err != nil {
		logger.Error("reindex failed", "error", err)
		return stats
	}
	defer rows.Close()

	type item struct {
		id, title, summary, content string
	}
	var items []item

	for rows.Next() {
		var it item
		var summary sql.NullString
		if err := rows.Scan(&it.id, &it.title, &summary, &it.content); err != nil {
			logger.Error("reindex failed", "error", err)
			return stats
		}
		it.summary = summary.String
		items = append(items, it)
	}
	rows.Close()

	stats.Total = len(items)
	for _, it := range items {
		text := it.title + "\n" + it.summary + "\n" + it.content
		if s.EmbedArtifact(ctx, it.id, text) {
			stats.Success++
		} else {
			stats.Failed++
		}
	}

	logger.Info("reindex complete", "total", stats.Total, "success", stats.Success, "failed", stats.Failed)
	return stats
}
