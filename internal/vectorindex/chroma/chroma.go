// Package chroma is a minimal REST client for a Chroma server, used as the
// remote vector index backend. Namespaces map to Chroma collections.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"ragserver/internal/domain"
)

// Index talks to one Chroma server over its HTTP API.
type Index struct {
	baseURL string
	client  *http.Client

	mu  sync.Mutex
	ids map[string]string // collection name -> collection id
}

type Config struct {
	URL     string
	Timeout time.Duration
}

func NewIndex(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Index{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: timeout},
		ids:     make(map[string]string),
	}
}

// EnsureNamespace creates the collection if missing and caches its id.
func (ix *Index) EnsureNamespace(ctx context.Context, namespace string) error {
	_, err := ix.collectionID(ctx, namespace)
	return err
}

func (ix *Index) collectionID(ctx context.Context, namespace string) (string, error) {
	ix.mu.Lock()
	id, ok := ix.ids[namespace]
	ix.mu.Unlock()
	if ok {
		return id, nil
	}
	var resp struct {
		ID string `json:"id"`
	}
	body := map[string]any{"name": namespace, "get_or_create": true}
	if err := ix.postJSON(ctx, ix.baseURL+"/api/v1/collections", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("chroma: no collection id for %q", namespace)
	}
	ix.mu.Lock()
	ix.ids[namespace] = resp.ID
	ix.mu.Unlock()
	return resp.ID, nil
}

func (ix *Index) Upsert(ctx context.Context, namespace string, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	id, err := ix.collectionID(ctx, namespace)
	if err != nil {
		return err
	}
	ids := make([]string, len(records))
	embeddings := make([][]float64, len(records))
	documents := make([]string, len(records))
	metadatas := make([]map[string]any, len(records))
	for i, r := range records {
		ids[i] = r.ID
		embeddings[i] = r.Embedding
		documents[i] = r.Text
		metadatas[i] = map[string]any{
			"filename":     r.Metadata.Filename,
			"chunk_number": r.Metadata.ChunkNumber,
		}
	}
	body := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	return ix.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections/%s/upsert", ix.baseURL, id), body, nil)
}

func (ix *Index) Search(ctx context.Context, namespace string, vector []float64, k int) ([]domain.QueryResult, error) {
	id, err := ix.collectionID(ctx, namespace)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"query_embeddings": [][]float64{vector},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	var resp struct {
		IDs       [][]string         `json:"ids"`
		Documents [][]string         `json:"documents"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Distances [][]float64        `json:"distances"`
	}
	if err := ix.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections/%s/query", ix.baseURL, id), body, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}
	results := make([]domain.QueryResult, 0, len(resp.IDs[0]))
	for i := range resp.IDs[0] {
		res := domain.QueryResult{ID: resp.IDs[0][i]}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			res.Document = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			res.Metadata = decodeMetadata(resp.Metadatas[0][i])
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			res.Distance = resp.Distances[0][i]
		}
		results = append(results, res)
	}
	return results, nil
}

func (ix *Index) Metadatas(ctx context.Context, namespace string) ([]domain.Metadata, error) {
	id, err := ix.collectionID(ctx, namespace)
	if err != nil {
		return nil, err
	}
	body := map[string]any{"include": []string{"metadatas"}}
	var resp struct {
		Metadatas []map[string]any `json:"metadatas"`
	}
	if err := ix.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections/%s/get", ix.baseURL, id), body, &resp); err != nil {
		return nil, err
	}
	metas := make([]domain.Metadata, 0, len(resp.Metadatas))
	for _, m := range resp.Metadatas {
		metas = append(metas, decodeMetadata(m))
	}
	return metas, nil
}

func (ix *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/api/v1/collections/%s", ix.baseURL, namespace), nil)
	if err != nil {
		return err
	}
	resp, err := ix.client.Do(req)
	if err != nil {
		return fmt.Errorf("chroma delete: %w", err)
	}
	defer resp.Body.Close()
	// A namespace that was never created is already gone.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("chroma delete %s: %s", namespace, resp.Status)
	}
	ix.mu.Lock()
	delete(ix.ids, namespace)
	ix.mu.Unlock()
	return nil
}

func decodeMetadata(m map[string]any) domain.Metadata {
	var meta domain.Metadata
	if v, ok := m["filename"].(string); ok {
		meta.Filename = v
	}
	if v, ok := m["chunk_number"].(float64); ok {
		meta.ChunkNumber = int(v)
	}
	return meta
}

func (ix *Index) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ix.client.Do(req)
	if err != nil {
		return fmt.Errorf("chroma POST %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chroma POST %s: %s: %s", url, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
