// Package hash is a deterministic local embedder for offline and test use.
// Tokens are hashed into a fixed number of buckets and the resulting vector
// is L2-normalized. Unlike a fitted model it is stateless, so vectors stay
// comparable across process restarts and requests.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const defaultDimension = 256

var tokenRe = regexp.MustCompile(`\p{L}+|\p{N}+`)

// Embedder hashes token counts into a fixed-size vector.
type Embedder struct {
	dimension int
}

func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = defaultDimension
	}
	return &Embedder{dimension: dimension}
}

func (e *Embedder) Model() string { return "feature-hash" }

func (e *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		vectors[i] = e.embed(t)
	}
	return vectors, nil
}

func (e *Embedder) embed(text string) []float64 {
	v := make([]float64, e.dimension)
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		v[int(h.Sum32())%e.dimension]++
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}
