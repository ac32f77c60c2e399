package canon

const (
	queryGetArtifact = `SELECT artifact_id, title, type, category, content, summary, source, source_url,
		approval_status, owner, tags, metadata, checksum, created_at, updated_at
		FROM artifacts WHERE artifact_id = ?`

	queryGetChecksum = `SELECT checksum FROM artifacts WHERE artifact_id = ?`

	queryUpsertArtifact = `INSERT INTO artifacts
		(artifact_id, title, type, category, content, summary, source, source_url, tags, metadata, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(artifact_id) DO UPDATE SET
			title = excluded.title,
			type = excluded.type,
			category = excluded.category,
			content = excluded.content,
			summary = excluded.summary,
			source = excluded.source,
			source_url = excluded.source_url,
			tags = excluded.tags,
			metadata = excluded.metadata,
			checksum = excluded.checksum,
			updated_at = datetime('now')`

	queryUpsertSearchIndex = `INSERT INTO search_index (artifact_id, searchable_text, indexed_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(artifact_id) DO UPDATE SET
			searchable_text = excluded.searchable_text,
			indexed_at = datetime('now')`

	queryApproveArtifact = `UPDATE artifacts
		SET approval_status = 'approved', updated_at = datetime('now')
		WHERE artifact_id = ?`

	queryUpsertLink = `INSERT INTO artifact_relationships
		(source_artifact_id, target_artifact_id, relationship_type)
		VALUES (?, ?, ?)
		ON CONFLICT(source_artifact_id, target_artifact_id) DO UPDATE SET
			relationship_type = excluded.relationship_type`

	queryGetRelated = `SELECT r.target_artifact_id, r.relationship_type, a.title
		FROM artifact_relationships r
		JOIN artifacts a ON a.artifact_id = r.target_artifact_id
		WHERE r.source_artifact_id = ?
		ORDER BY r.created_at DESC`

	queryInsertRetrieval = `INSERT INTO retrieval_log
		(log_id, artifact_id, request_id, execution_id, intent_id, retrieval_type, relevance_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryUpsertEmbeddingMeta = `INSERT INTO artifact_embeddings (artifact_id, model, dimension, checksum, created_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(artifact_id) DO UPDATE SET
			model = excluded.model,
			dimension = excluded.dimension,
			checksum = excluded.checksum,
			created_at = datetime('now')`

	queryDeleteEmbeddingMeta = `DELETE FROM artifact_embeddings WHERE artifact_id = ?`

	queryArtifactRowid = `SELECT rowid FROM artifacts WHERE artifact_id = ?`

	queryInsertVec = `INSERT INTO vec_artifacts (artifact_rowid, embedding) VALUES (?, ?)`
	queryDeleteVec = `DELETE FROM vec_artifacts WHERE artifact_rowid = ?`

	queryHasEmbedding = `SELECT COUNT(*) FROM artifact_embeddings WHERE artifact_id = ?`
)
