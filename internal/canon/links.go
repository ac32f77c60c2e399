package canon

import (
	"context"

	"github.com/whyhi/wos/internal/logger"
)

// LinkArtifacts records a directed edge between two artifacts. The edge
// is keyed by the (source, target) pair; relinking the same pair
// replaces the relationship type.
func (s *Store) LinkArtifacts(ctx context.Context, sourceID, targetID, relationshipType string) bool {
	if relationshipType == "" {
		relationshipType = "related"
	}

	if _, err := s.db.ExecContext(ctx, queryUpsertLink, sourceID, targetID, relationshipType); err != nil {
		logger.Error("link artifacts failed", "source", sourceID, "target", targetID, "error", err)
		return false
	}

	logger.Info("artifacts linked", "source", sourceID, "target", targetID, "type", relationshipType)
	return true
}

// RelatedArtifacts returns outbound edges only, newest link first.
func (s *Store) RelatedArtifacts(ctx context.Context, artifactID string) ([]Related, error) {
	rows, err := s.db.QueryContext(ctx, queryGetRelated, artifactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var related []Related
	for rows.Next() {
		var r Related
		if err := rows.Scan(&r.ArtifactID, &r.RelationshipType, &r.Title); err != nil {
			return nil, err
		}
		related = append(related, r)
	}

	return related, rows.Err()
}
