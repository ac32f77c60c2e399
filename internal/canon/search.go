package canon

import (
	"context"
	"database/sql"
	"strings"

	"github.com/whyhi/wos/internal/logger"
)

// SearchArtifacts is the text search path: case-insensitive substring
// match against title and summary. Relevance is min(10, 2 * occurrences
// of the query across title, summary and content), but results are
// ordered by creation time descending, not by score: downstream callers
// depend on recency ordering. Returns an empty slice and logs on error.
func (s *Store) SearchArtifacts(ctx context.Context, query string, opts SearchOptions) []SearchResult {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	queryLower := strings.ToLower(query)
	pattern := "%" + queryLower + "%"

	q := `SELECT artifact_id, title, type, category, content, summary, source, created_at
		FROM artifacts
		WHERE (LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)`
	args := []any{pattern, pattern}

	if opts.Type != "" {
		q += " AND type = ?"
		args = append(args, opts.Type)
	}
	if opts.Category != "" {
		q += " AND category = ?"
		args = append(args, opts.Category)
	}

	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		logger.Error("search failed", "query", query, "error", err)
		return []SearchResult{}
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var content string
		var category, summary, source sql.NullString
		if err := rows.Scan(&r.ArtifactID, &r.Title, &r.Type, &category, &content, &summary, &source, &r.CreatedAt); err != nil {
			logger.Error("search failed", "query", query, "error", err)
			return []SearchResult{}
		}

		r.Category = category.String
		r.Source = source.String

		haystack := strings.ToLower(r.Title + " " + summary.String + " " + content)
		score := float64(strings.Count(haystack, queryLower)) * 2.0
		if score > 10 {
			score = 10
		}
		r.RelevanceScore = score

		r.Summary = summary.String
		if r.Summary == "" {
			r.Summary = head(content, 200)
		}

		if opts.Retrieval.RequestID != "" || opts.Retrieval.ExecutionID != "" {
			s.logRetrieval(ctx, r.ArtifactID, "search", opts.Retrieval, r.RelevanceScore)
		}

		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		logger.Error("search failed", "query", query, "error", err)
		return []SearchResult{}
	}

	if results == nil {
		results = []SearchResult{}
	}

	logger.Debug("search complete", "query", query, "results", len(results))
	return results
}

// Search is the retrieval-first entry point: semantic search when an
// embedder is configured, text search otherwise. Any embedder or vector
// failure falls back to text search rather than failing the query.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) []SearchResult {
	if s.embedder != nil {
		results, err := s.SemanticSearch(ctx, query, opts)
		if err != nil {
			logger.Warn("semantic search unavailable, falling back to text", "query", query, "error", err)
		} else if len(results) > 0 {
			return results
		}
	}

	return s.SearchArtifacts(ctx, query, opts)
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
