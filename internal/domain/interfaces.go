package domain

import "context"

// Extractor converts raw file bytes into normalized text or a structured
// failure reason. Extract never panics outward; every format or library error
// is converted into an empty text with an explanatory note.
type Extractor interface {
	Extract(filename string, data []byte) ExtractionResult
}

// Embedder converts texts into fixed-length numeric vectors. EmbedBatch is
// order-preserving: the i-th input text maps to the i-th output vector. The
// call fails as a single unit, never with partial results.
type Embedder interface {
	Model() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Index stores chunk records per isolated namespace and answers
// nearest-neighbor queries. Namespaces are created lazily by EnsureNamespace
// and destroyed wholesale by DeleteNamespace.
type Index interface {
	EnsureNamespace(ctx context.Context, namespace string) error
	Upsert(ctx context.Context, namespace string, records []ChunkRecord) error
	Search(ctx context.Context, namespace string, vector []float64, k int) ([]QueryResult, error)
	Metadatas(ctx context.Context, namespace string) ([]Metadata, error)
	DeleteNamespace(ctx context.Context, namespace string) error
}

// Knowledge defines the operations exposed by the application core.
type Knowledge interface {
	Ingest(ctx context.Context, userID string, files []Upload) (IngestSummary, error)
	Query(ctx context.Context, userID, query string, n int) ([]QueryResult, error)
	ListFiles(ctx context.Context, userID string) ([]string, error)
	Reset(ctx context.Context, userID string) error
}
