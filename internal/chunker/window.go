// Package chunker splits normalized document text into overlapping
// fixed-size windows.
package chunker

import "ragserver/internal/domain"

// Window is a deterministic sliding-window chunker. Windows count runes, not
// bytes, so a chunk boundary never splits a code point.
type Window struct {
	size    int
	overlap int
}

// NewWindow creates a chunker with the given window size and overlap.
// Size is clamped to at least 1; negative overlap is treated as 0.
func NewWindow(size, overlap int) *Window {
	if size < 1 {
		size = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Window{size: size, overlap: overlap}
}

// Chunk emits [start, start+size) windows advancing by max(1, size-overlap).
// The step clamp keeps an overlap >= size from looping forever. Empty input
// yields no chunks; the final chunk may be shorter than size.
func (w *Window) Chunk(text, filename string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := w.size - w.overlap
	if step < 1 {
		step = 1
	}
	var chunks []domain.Chunk
	for start, idx := 0, 0; start < len(runes); start, idx = start+step, idx+1 {
		end := start + w.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			Text:     string(runes[start:end]),
			Index:    idx,
			Filename: filename,
		})
	}
	return chunks
}
