// Package service implements the ingestion and retrieval orchestration over
// the extractor registry, the chunker, the embedding gateway and the vector
// index.
package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ragserver/internal/chunker"
	"ragserver/internal/domain"
	"ragserver/internal/extract"
	"ragserver/internal/vectorindex"
)

// Limits carries the configured ingestion and retrieval bounds.
type Limits struct {
	ChunkSize      int
	ChunkOverlap   int
	MaxFileBytes   int64
	AllowedExts    map[string]bool
	DefaultResults int
	MinResults     int
	MaxResults     int
}

// Knowledge is the application core: it drives extract -> chunk -> embed ->
// upsert for ingestion and embed -> search for retrieval, one isolated
// namespace per user.
type Knowledge struct {
	registry *extract.Registry
	chunker  *chunker.Window
	embedder domain.Embedder
	index    domain.Index
	limits   Limits
}

func NewKnowledge(registry *extract.Registry, embedder domain.Embedder, index domain.Index, limits Limits) *Knowledge {
	return &Knowledge{
		registry: registry,
		chunker:  chunker.NewWindow(limits.ChunkSize, limits.ChunkOverlap),
		embedder: embedder,
		index:    index,
		limits:   limits,
	}
}

// Ingest processes files strictly in order. Per-file failures become
// warnings and never abort the batch; only the final batched embed and
// upsert calls can fail the request as a whole. When no file yields chunks
// the embedding gateway is not called at all.
func (s *Knowledge) Ingest(ctx context.Context, userID string, files []domain.Upload) (domain.IngestSummary, error) {
	summary := domain.IngestSummary{Warnings: []string{}}
	if len(files) == 0 {
		return summary, domain.ErrNoFiles
	}
	var (
		records []domain.ChunkRecord
		texts   []string
	)
	for _, f := range files {
		ext := extract.Ext(f.Filename)
		if !s.limits.AllowedExts[ext] || !s.registry.Supports(ext) {
			summary.Warnings = append(summary.Warnings, f.Filename+": format not supported")
			summary.SkippedFiles++
			continue
		}
		if int64(len(f.Data)) > s.limits.MaxFileBytes {
			summary.Warnings = append(summary.Warnings, f.Filename+": file too large")
			summary.SkippedFiles++
			continue
		}

		res := s.registry.Extract(f.Filename, f.Data)
		if res.Note != "" {
			summary.Warnings = append(summary.Warnings, f.Filename+": "+res.Note)
		}
		if strings.TrimSpace(res.Text) == "" {
			summary.Warnings = append(summary.Warnings, f.Filename+": no extractable text")
			summary.SkippedFiles++
			continue
		}

		chunks := s.chunker.Chunk(res.Text, f.Filename)
		if len(chunks) == 0 {
			summary.Warnings = append(summary.Warnings, f.Filename+": empty document")
			summary.SkippedFiles++
			continue
		}
		for _, ch := range chunks {
			records = append(records, domain.ChunkRecord{
				ID:       ch.Filename + "-" + strconv.Itoa(ch.Index),
				Text:     ch.Text,
				Metadata: domain.Metadata{Filename: ch.Filename, ChunkNumber: ch.Index},
			})
			texts = append(texts, ch.Text)
		}
		summary.IndexedFiles++
	}

	// A fully skipped batch returns its warnings without touching the
	// embedding gateway or the index at all.
	if len(records) == 0 {
		return summary, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return summary, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(records) {
		return summary, fmt.Errorf("embedding gateway returned %d vectors for %d chunks", len(vectors), len(records))
	}
	for i := range records {
		records[i].Embedding = vectors[i]
	}
	namespace := vectorindex.ForUser(userID)
	if err := s.index.EnsureNamespace(ctx, namespace); err != nil {
		return summary, fmt.Errorf("ensure namespace: %w", err)
	}
	if err := s.index.Upsert(ctx, namespace, records); err != nil {
		return summary, fmt.Errorf("upsert chunks: %w", err)
	}
	summary.IndexedChunks = len(records)
	return summary, nil
}

// Query embeds the query text and returns the closest chunks, ascending by
// distance. The result count is clamped into the configured range; an empty
// index yields an empty list.
func (s *Knowledge) Query(ctx context.Context, userID, query string, n int) ([]domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if n <= 0 {
		n = s.limits.DefaultResults
	}
	if n < s.limits.MinResults {
		n = s.limits.MinResults
	}
	if n > s.limits.MaxResults {
		n = s.limits.MaxResults
	}

	namespace := vectorindex.ForUser(userID)
	if err := s.index.EnsureNamespace(ctx, namespace); err != nil {
		return nil, fmt.Errorf("ensure namespace: %w", err)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding gateway returned %d vectors for one query", len(vectors))
	}
	results, err := s.index.Search(ctx, namespace, vectors[0], n)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if results == nil {
		results = []domain.QueryResult{}
	}
	return results, nil
}

// ListFiles returns the sorted distinct filenames currently indexed for the
// user.
func (s *Knowledge) ListFiles(ctx context.Context, userID string) ([]string, error) {
	metas, err := s.index.Metadatas(ctx, vectorindex.ForUser(userID))
	if err != nil {
		return nil, fmt.Errorf("read index metadata: %w", err)
	}
	seen := make(map[string]bool, len(metas))
	names := []string{}
	for _, m := range metas {
		if m.Filename == "" || seen[m.Filename] {
			continue
		}
		seen[m.Filename] = true
		names = append(names, m.Filename)
	}
	sort.Strings(names)
	return names, nil
}

// Reset destroys the user's entire namespace. The next ingestion or query
// lazily recreates an empty one.
func (s *Knowledge) Reset(ctx context.Context, userID string) error {
	if err := s.index.DeleteNamespace(ctx, vectorindex.ForUser(userID)); err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	return nil
}
