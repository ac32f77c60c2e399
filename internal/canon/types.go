package canon

import (
	"context"
	"database/sql"
	"time"
)

// Embedder produces a fixed-dimension vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the Canon knowledge base: artifacts, relationships,
// retrieval audit log, and optional vector embeddings.
type Store struct {
	db       *sql.DB
	embedder Embedder
	model    string
}

type Artifact struct {
	ArtifactID     string
	Title          string
	Type           string
	Category       string
	Content        string
	Summary        string
	Source         string
	SourceURL      string
	ApprovalStatus string
	Owner          string
	Tags           []string
	Metadata       map[string]any
	Checksum       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ArtifactInput is the payload for StoreArtifact. ArtifactID, Title and
// Content are required; Type defaults to "document".
type ArtifactInput struct {
	ArtifactID string
	Title      string
	Content    string
	Type       string
	Category   string
	Summary    string
	Source     string
	SourceURL  string
	Tags       []string
	Metadata   map[string]any
	AutoEmbed  bool
}

// Retrieval carries audit-trail correlation ids. NoLog suppresses the
// retrieval log entry.
type Retrieval struct {
	RequestID   string
	ExecutionID string
	IntentID    string
	NoLog       bool
}

// SearchResult is an artifact summary. Full content is only available
// through GetArtifact.
type SearchResult struct {
	ArtifactID     string
	Title          string
	Type           string
	Category       string
	Summary        string
	Source         string
	RelevanceScore float64
	Similarity     float64 // 0 unless semantic search produced this result
	CreatedAt      time.Time
}

type SearchOptions struct {
	Limit         int     // default 10
	Type          string  // filter, empty = any
	Category      string  // filter, empty = any
	MinSimilarity float64 // semantic only, default 0.5
	Retrieval     Retrieval
}

type Related struct {
	ArtifactID       string
	RelationshipType string
	Title            string
}

type ReindexStats struct {
	Total   int
	Success int
	Failed  int
}

type Stats struct {
	TotalArtifacts  int            `json:"total_artifacts"`
	ByType          map[string]int `json:"by_type"`
	ByCategory      map[string]int `json:"by_category"`
	TotalRetrievals int            `json:"total_retrievals"`
	TotalEmbeddings int            `json:"total_embeddings"`
	MissingVectors  int            `json:"missing_vectors"`
	EmbeddingModel  string         `json:"embedding_model,omitempty"`
}
