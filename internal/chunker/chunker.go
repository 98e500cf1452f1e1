// Package chunker splits document text into overlapping, boundary-aware
// segments for embedding and retrieval.
package chunker

import "strings"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultOverlap is the default number of overlapping characters
// shared by consecutive chunks.
const DefaultOverlap = 50

// sentenceTerminators are searched first when looking for a cut point.
var sentenceTerminators = []string{". ", ".\n", "? ", "! "}

// Chunker splits text into overlapping chunks, preferring to cut at
// sentence, paragraph and line boundaries over raw character offsets.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split divides text into ordered, non-empty chunks.
//
// Text no longer than the chunk size is returned as a single chunk,
// unchanged. Otherwise a window of chunkSize characters slides over the
// text; at each step the cut point is moved back to the latest sentence
// terminator, paragraph break or line break that qualifies, in that
// priority order. The next window starts overlap characters before the
// cut, so consecutive chunks share context. Chunks are trimmed of
// surrounding whitespace and empty results are dropped.
func (c *Chunker) Split(text string) []string {
	if len(text) <= c.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + c.chunkSize

		if end >= len(text) {
			if tail := strings.TrimSpace(text[start:]); tail != "" {
				chunks = append(chunks, tail)
			}
			break
		}

		window := text[start:end]

		// Sentence terminators qualify only past the window midpoint.
		sentence := -1
		for _, term := range sentenceTerminators {
			if idx := strings.LastIndex(window, term); idx > start+c.chunkSize/2 && idx > sentence {
				sentence = idx
			}
		}

		if sentence > 0 {
			end = start + sentence + 1
		} else if para := strings.LastIndex(window, "\n\n"); para > start+c.chunkSize/3 {
			end = start + para + 2
		} else if line := strings.LastIndex(window, "\n"); line > start+c.chunkSize/2 {
			end = start + line + 1
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - c.overlap
		if next <= start {
			// Guarantee forward progress when a boundary cut lands
			// inside the previous overlap.
			next = end
		}
		start = next
	}

	return chunks
}
