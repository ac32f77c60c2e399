package canon

import (
	"context"

	"github.com/google/uuid"

	"github.com/whyhi/wos/internal/logger"
)

// logRetrieval appends one audit row per returned artifact. Audit
// durability is best-effort: a failed insert never aborts the retrieval.
func (s *Store) logRetrieval(ctx context.Context, artifactID, retrievalType string, ret Retrieval, score float64) {
	var scoreVal any
	if score > 0 {
		scoreVal = score
	}

	_, err := s.db.ExecContext(ctx, queryInsertRetrieval,
		uuid.New().String(), artifactID,
		nullable(ret.RequestID), nullable(ret.ExecutionID), nullable(ret.IntentID),
		retrievalType, scoreVal)
	if err != nil {
		logger.Warn("retrieval log write failed", "artifact_id", artifactID, "error", err)
	}
}
