package canon

const VectorDimensions = 1536

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
    artifact_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    type TEXT NOT NULL,
    category TEXT,
    content TEXT NOT NULL,
    summary TEXT,
    source TEXT,
    source_url TEXT,
    approval_status TEXT DEFAULT 'draft',
    owner TEXT DEFAULT 'wos',
    tags TEXT,
    metadata TEXT,
    checksum TEXT,
    created_at DATETIME DEFAULT (datetime('now')),
    updated_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_artifacts_type ON artifacts(type);
CREATE INDEX IF NOT EXISTS idx_artifacts_category ON artifacts(category);
CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created_at);
CREATE INDEX IF NOT EXISTS idx_artifacts_approval ON artifacts(approval_status);

CREATE TABLE IF NOT EXISTS search_index (
    artifact_id TEXT PRIMARY KEY REFERENCES artifacts(artifact_id),
    searchable_text TEXT NOT NULL,
    indexed_at DATETIME DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS retrieval_log (
    log_id TEXT PRIMARY KEY,
    artifact_id TEXT NOT NULL REFERENCES artifacts(artifact_id),
    request_id TEXT,
    execution_id TEXT,
    intent_id TEXT,
    retrieval_type TEXT NOT NULL,
    relevance_score REAL,
    retrieved_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_retrieval_artifact ON retrieval_log(artifact_id);

CREATE TABLE IF NOT EXISTS artifact_relationships (
    source_artifact_id TEXT NOT NULL REFERENCES artifacts(artifact_id),
    target_artifact_id TEXT NOT NULL REFERENCES artifacts(artifact_id),
    relationship_type TEXT NOT NULL DEFAULT 'related',
    created_at DATETIME DEFAULT (datetime('now')),
    PRIMARY KEY (source_artifact_id, target_artifact_id)
);

CREATE TABLE IF NOT EXISTS artifact_embeddings (
    artifact_id TEXT PRIMARY KEY REFERENCES artifacts(artifact_id),
    model TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    checksum TEXT,
    created_at DATETIME DEFAULT (datetime('now'))
);
`

const vecSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_artifacts USING vec0(
    artifact_rowid INTEGER PRIMARY KEY,
    embedding FLOAT[1536] distance_metric=cosine
);
`
