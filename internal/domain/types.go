package domain

// Upload is a single uploaded file. It lives only for the duration of one
// ingestion request and is never persisted.
type Upload struct {
	Filename string
	Data     []byte
}

// ExtractionResult is the outcome of running a format extractor over an upload.
// A non-empty Note does not imply empty Text: a degraded parser may still
// return usable text and flag its fidelity.
type ExtractionResult struct {
	Text string
	Note string
}

// Chunk is a bounded-length window of a document's normalized text.
type Chunk struct {
	Text     string
	Index    int
	Filename string
}

// Metadata is the retrieval metadata stored alongside each chunk.
type Metadata struct {
	Filename    string `json:"filename"`
	ChunkNumber int    `json:"chunk_number"`
}

// ChunkRecord is the unit stored in the vector index. The ID is derived from
// filename and chunk index, so re-uploading a same-named file overwrites
// records at the same indices.
type ChunkRecord struct {
	ID        string
	Embedding []float64
	Text      string
	Metadata  Metadata
}

// QueryResult is one ranked match from the vector index. Distance is ascending:
// lower means more similar.
type QueryResult struct {
	ID       string   `json:"id"`
	Document string   `json:"document"`
	Metadata Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}

// IngestSummary aggregates the outcome of one ingestion call.
type IngestSummary struct {
	IndexedFiles  int      `json:"indexed_files"`
	SkippedFiles  int      `json:"skipped_files"`
	IndexedChunks int      `json:"indexed_chunks"`
	Warnings      []string `json:"warnings"`
}
