// Package memory is an in-process vector index using brute-force cosine
// similarity, meant for development and tests.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"ragserver/internal/domain"
)

type collection struct {
	dimension int
	order     []string
	records   map[string]domain.ChunkRecord
}

// Index holds one collection per namespace behind a single lock.
type Index struct {
	mu         sync.RWMutex
	namespaces map[string]*collection
}

func NewIndex() *Index {
	return &Index{namespaces: make(map[string]*collection)}
}

func (ix *Index) EnsureNamespace(_ context.Context, namespace string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ensureLocked(namespace)
	return nil
}

func (ix *Index) ensureLocked(namespace string) *collection {
	c, ok := ix.namespaces[namespace]
	if !ok {
		c = &collection{records: make(map[string]domain.ChunkRecord)}
		ix.namespaces[namespace] = c
	}
	return c
}

func (ix *Index) Upsert(_ context.Context, namespace string, records []domain.ChunkRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	c := ix.ensureLocked(namespace)
	for _, r := range records {
		if c.dimension == 0 {
			c.dimension = len(r.Embedding)
		}
		if len(r.Embedding) != c.dimension {
			return errors.New("vector dimension mismatch")
		}
		if _, ok := c.records[r.ID]; !ok {
			c.order = append(c.order, r.ID)
		}
		c.records[r.ID] = r
	}
	return nil
}

func (ix *Index) Search(_ context.Context, namespace string, vector []float64, k int) ([]domain.QueryResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	c, ok := ix.namespaces[namespace]
	if !ok || len(c.records) == 0 {
		return nil, nil
	}
	results := make([]domain.QueryResult, 0, len(c.records))
	for _, id := range c.order {
		r := c.records[id]
		results = append(results, domain.QueryResult{
			ID:       r.ID,
			Document: r.Text,
			Metadata: r.Metadata,
			Distance: cosineDistance(vector, r.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (ix *Index) Metadatas(_ context.Context, namespace string) ([]domain.Metadata, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	c, ok := ix.namespaces[namespace]
	if !ok {
		return nil, nil
	}
	metas := make([]domain.Metadata, 0, len(c.records))
	for _, id := range c.order {
		metas = append(metas, c.records[id].Metadata)
	}
	return metas, nil
}

// DeleteNamespace drops the whole collection. Deleting a namespace that was
// never created is not an error.
func (ix *Index) DeleteNamespace(_ context.Context, namespace string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.namespaces, namespace)
	return nil
}

// cosineDistance is 1 - cosine similarity, so lower means more similar.
func cosineDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
