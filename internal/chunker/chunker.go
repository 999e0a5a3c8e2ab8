// Package chunker splits document content into bounded, overlapping spans
// suitable for embedding.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// sentenceWindow is the fraction of the chunk window searched backward
	// for a sentence terminator before cutting.
	sentenceWindow = 0.10

	// wordWindow is the fraction of the chunk window searched backward for
	// a whitespace boundary when no sentence terminator is found.
	wordWindow = 0.05

	// sentenceTerminators end a sentence.
	sentenceTerminators = ".!?"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Chunk is a contiguous span of a document's content.
//
// Chunks are recomputed from content on each ingestion and have no
// independent lifecycle. Start and End are byte offsets into the cleaned
// content such that content[Start:End] == Text.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// Chunker splits content into overlapping chunks.
type Chunker struct {
	// MaxSize is the maximum chunk length in characters.
	MaxSize int

	// Overlap is the number of characters consecutive chunks share.
	// Must be smaller than MaxSize.
	Overlap int
}

// New creates a Chunker, validating its parameters.
func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("overlap must be in [0, max size), got %d", overlap)
	}
	return &Chunker{MaxSize: maxSize, Overlap: overlap}, nil
}

// Clean normalizes document content before chunking: line breaks and runs
// of whitespace collapse to single spaces, leading/trailing space is
// removed. Deterministic.
func Clean(content string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(content, " "))
}

// Chunk splits content into an ordered sequence of chunks.
//
// Content no longer than MaxSize yields a single chunk equal to the whole
// content. Longer content is windowed: before cutting at MaxSize the window
// is shortened to the last sentence terminator in its final 10%, or failing
// that the last whitespace boundary in its final 5%, so chunks avoid
// splitting mid-sentence. The window start then advances by
// (chunk length - Overlap), preserving Overlap characters of context across
// the boundary. Same content and parameters always yield the same sequence.
func (c *Chunker) Chunk(content string) []Chunk {
	if content == "" {
		return nil
	}
	if len(content) <= c.MaxSize {
		return []Chunk{{Text: content, Start: 0, End: len(content)}}
	}

	var chunks []Chunk
	start := 0
	for start < len(content) {
		end := start + c.MaxSize
		if end >= len(content) {
			end = len(content)
		} else {
			end = c.adjustBoundary(content, start, end)
		}

		if text := strings.TrimSpace(content[start:end]); text != "" {
			lead := strings.Index(content[start:end], text)
			chunks = append(chunks, Chunk{
				Text:  text,
				Start: start + lead,
				End:   start + lead + len(text),
			})
		}

		if end >= len(content) {
			break
		}
		next := end - c.Overlap
		if next <= start {
			// Overlap would stall the window; force progress.
			next = end
		}
		// Offsets are bytes; keep the next window on a rune boundary.
		for next < len(content) && !utf8.RuneStart(content[next]) {
			next++
		}
		start = next
	}
	return chunks
}

// adjustBoundary moves a cut point backward to the nearest sentence
// terminator within the final 10% of the window, or the nearest whitespace
// within the final 5%, preferring sentence boundaries.
func (c *Chunker) adjustBoundary(content string, start, end int) int {
	sentenceFloor := end - int(float64(c.MaxSize)*sentenceWindow)
	if i := strings.LastIndexAny(content[start:end], sentenceTerminators); i >= 0 {
		cut := start + i + 1
		if cut > sentenceFloor {
			return cut
		}
	}

	wordFloor := end - int(float64(c.MaxSize)*wordWindow)
	if i := strings.LastIndex(content[start:end], " "); i >= 0 {
		cut := start + i
		if cut > wordFloor {
			return cut
		}
	}

	// Hard cut. Back off to a rune boundary so multibyte content is never
	// split mid-rune.
	for end > start && !utf8.RuneStart(content[end]) {
		end--
	}
	if end == start {
		// MaxSize is smaller than the rune at start; take the whole rune.
		_, size := utf8.DecodeRuneInString(content[start:])
		end = start + size
	}
	return end
}
