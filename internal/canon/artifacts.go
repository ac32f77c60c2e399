package canon

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/whyhi/wos/internal/logger"
)

const searchIndexCap = 5000

// StoreArtifact upserts an artifact by id. The search index row is
// rebuilt and, when AutoEmbed is set and an embedder is configured, the
// embedding is regenerated. A content change without AutoEmbed drops the
// now-stale embedding. Returns false and logs on any storage error.
func (s *Store) StoreArtifact(ctx context.Context, in ArtifactInput) bool {
	if in.ArtifactID == "" || in.Title == "" || in.Content == "" {
		logger.Error("store artifact rejected", "artifact_id", in.ArtifactID, "reason", "missing required field")
		return false
	}

	artifactType := in.Type
	if artifactType == "" {
		artifactType = "document"
	}

	sum := sha256.Sum256([]byte(in.Content))
	checksum := hex.EncodeToString(sum[:])

	var prevChecksum string
	err := s.db.QueryRowContext(ctx, queryGetChecksum, in.ArtifactID).Scan(&prevChecksum)
	if err != nil && err != sql.ErrNoRows {
		logger.Error("store artifact failed", "artifact_id", in.ArtifactID, "error", err)
		return false
	}

	var tagsJSON, metaJSON any
	if len(in.Tags) > 0 {
		b, err := json.Marshal(in.Tags)
		if err != nil {
			logger.Error("store artifact failed", "artifact_id", in.ArtifactID, "error", err)
			return false
		}
		tagsJSON = string(b)
	}
	if len(in.Metadata) > 0 {
		b, err := json.Marshal(in.Metadata)
		if err != nil {
			logger.Error("store artifact failed", "artifact_id", in.ArtifactID, "error", err)
			return false
		}
		metaJSON = string(b)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("store artifact failed", "artifact_id", in.ArtifactID, "error", err)
		return false
	}

	if _, err := tx.ExecContext(ctx, queryUpsertArtifact,
		in.ArtifactID, in.Title, artifactType, nullable(in.Category), in.Content,
		nullable(in.Summary), nullable(in.Source), nullable(in.SourceURL),
		tagsJSON, metaJSON, checksum); err != nil {
		tx.Rollback()
		logger.Error("store artifact failed", "artifact_id", in.ArtifactID, "error", err)
		return false
	}

	searchable := strings.ToLower(in.Title + " " + in.Content + " " + strings.Join(in.Tags, " "))
	if len(searchable) > searchIndexCap {
		searchable = searchable[:searchIndexCap]
	}

	if _, err := tx.ExecContext(ctx, queryUpsertSearchIndex, in.ArtifactID, searchable); err != nil {
		tx.Rollback()
		logger.Error("store artifact failed", "artifact_id", in.ArtifactID, "error", err)
		return false
	}

	if err := tx.Commit(); err != nil {
		logger.Error("store artifact failed", "artifact_id", in.ArtifactID, "error", err)
		return false
	}

	if in.AutoEmbed && s.embedder != nil {
		text := in.Title + "\n" + in.Summary + "\n" + in.Content
		if !s.EmbedArtifact(ctx, in.ArtifactID, text) {
			logger.Warn("auto-embed failed", "artifact_id", in.ArtifactID)
		}
	} else if prevChecksum != "" && prevChecksum != checksum {
		// content changed without re-embedding: the old vector no
		// longer describes the artifact
		s.deleteEmbedding(in.ArtifactID)
	}

	logger.Info("artifact stored", "artifact_id", in.ArtifactID, "type", artifactType)
	return true
}

// GetArtifact returns the full artifact, or (nil, nil) when it does not
// exist. The retrieval is recorded in the audit log unless ret.NoLog is
// set.
func (s *Store) GetArtifact(ctx context.Context, artifactID string, ret Retrieval) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx, queryGetArtifact, artifactID)

	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		logger.Debug("artifact not found", "artifact_id", artifactID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !ret.NoLog {
		s.logRetrieval(ctx, artifactID, "get", ret, 0)
	}

	return a, nil
}

// ListArtifacts returns artifact summaries ordered by creation time
// descending. Empty filters match everything.
func (s *Store) ListArtifacts(ctx context.Context, artifactType, category string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT artifact_id, title, type, category, summary, source, created_at FROM artifacts WHERE 1=1`
	args := []any{}

	if artifactType != "" {
		q += " AND type = ?"
		args = append(args, artifactType)
	}
	if category != "" {
		q += " AND category = ?"
		args = append(args, category)
	}

	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var category, summary, source sql.NullString
		if err := rows.Scan(&r.ArtifactID, &r.Title, &r.Type, &category, &summary, &source, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Category = category.String
		r.Summary = summary.String
		r.Source = source.String
		results = append(results, r)
	}

	return results, rows.Err()
}

// ApproveArtifact flips approval_status to approved. Approving an
// already-approved artifact succeeds.
func (s *Store) ApproveArtifact(ctx context.Context, artifactID, approver string) bool {
	res, err := s.db.ExecContext(ctx, queryApproveArtifact, artifactID)
	if err != nil {
		logger.Error("approve artifact failed", "artifact_id", artifactID, "error", err)
		return false
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		logger.Warn("approve artifact: not found", "artifact_id", artifactID)
		return false
	}

	logger.Info("artifact approved", "artifact_id", artifactID, "approver", approver)
	return true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*Artifact, error) {
	var a Artifact
	var category, summary, source, sourceURL, owner, tags, metadata, checksum sql.NullString

	err := row.Scan(&a.ArtifactID, &a.Title, &a.Type, &category, &a.Content, &summary,
		&source, &sourceURL, &a.ApprovalStatus, &owner, &tags, &metadata, &checksum,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Category = category.String
	a.Summary = summary.String
	a.Source = source.String
	a.SourceURL = sourceURL.String
	a.Owner = owner.String
	a.Checksum = checksum.String

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &a.Tags); err != nil {
			logger.Warn("artifact tags unreadable", "artifact_id", a.ArtifactID, "error", err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &a.Metadata); err != nil {
			logger.Warn("artifact metadata unreadable", "artifact_id", a.ArtifactID, "error", err)
		}
	}

	return &a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
