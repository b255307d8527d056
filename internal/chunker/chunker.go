// Package chunker splits extracted document text into overlapping,
// size-bounded passages for embedding and retrieval.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/docqa/internal/domain"
)

// Config controls chunk sizing. MaxChars and Overlap are rune counts.
type Config struct {
	MaxChars int
	Overlap  int
}

// DefaultConfig provides sane defaults for chunking.
func DefaultConfig() Config {
	return Config{
		MaxChars: 1000,
		Overlap:  200,
	}
}

// sentenceBreaks are preferred cut points, checked from the chunk
// boundary backwards. Longer sequences first so "\n\n" wins over "\n".
var sentenceBreaks = []string{". ", ".\n", "! ", "!\n", "? ", "?\n", "\n\n"}

// Chunker splits text into chunks per a fixed Config.
type Chunker struct {
	cfg Config
}

// New validates the configuration and returns a Chunker.
func New(cfg Config) (*Chunker, error) {
	if cfg.MaxChars <= 0 || cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxChars {
		return nil, domain.ErrInvalidChunkConfig
	}
	return &Chunker{cfg: cfg}, nil
}

// Split produces the ordered chunk sequence for one document's text.
// Every rune of the input is covered by at least one chunk; consecutive
// chunks overlap by up to cfg.Overlap runes. Empty or blank text yields
// zero chunks.
func (c *Chunker) Split(documentID, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.cfg.MaxChars {
		return []domain.Chunk{{
			DocumentID: documentID,
			Index:      0,
			Text:       text,
			Start:      0,
			End:        len(runes),
		}}
	}

	chunks := make([]domain.Chunk, 0, len(runes)/c.cfg.MaxChars+1)
	start := 0
	for start < len(runes) {
		end := start + c.cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		} else {
			end = c.cutPoint(runes, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
		})

		if end >= len(runes) {
			break
		}

		nextStart := end - c.cfg.Overlap
		// The overlap must never push the window backwards or a pathological
		// boundary could loop forever.
		if nextStart <= start {
			nextStart = start + 1
		}
		start = nextStart
	}

	return chunks
}

// cutPoint finds the best end offset in (start, limit], preferring a
// sentence or paragraph break, then any whitespace, then the hard limit.
// Cuts at or before start+Overlap are rejected: the next window starts at
// end-Overlap, so accepting one would re-scan the same text and emit a
// run of near-duplicate chunks instead of advancing.
func (c *Chunker) cutPoint(runes []rune, start, limit int) int {
	floor := start + c.cfg.Overlap + 1
	if floor >= limit {
		return limit
	}

	window := string(runes[start:limit])

	best := -1
	for _, brk := range sentenceBreaks {
		if idx := strings.LastIndex(window, brk); idx >= 0 {
			// LastIndex works on bytes; recover the rune offset.
			cut := utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(brk)
			if start+cut >= floor && cut > best {
				best = cut
			}
		}
	}
	if best > 0 {
		return start + best
	}

	for i := limit; i >= floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	return limit
}
