// Package extract computes the sentence window around a selection, used as
// disambiguating context and as translation context.
package extract

import (
	"strings"
	"unicode"

	"github.com/ilyakh/marginalia/internal/dom"
	"github.com/ilyakh/marginalia/internal/selection"
	"github.com/ilyakh/marginalia/internal/sentence"
)

// SentenceExtractor finds the sentence containing a selection within its
// block scope.
type SentenceExtractor struct {
	detector *sentence.Detector
}

// NewSentenceExtractor creates an extractor using the given boundary
// detector.
func NewSentenceExtractor(detector *sentence.Detector) *SentenceExtractor {
	return &SentenceExtractor{detector: detector}
}

// Extract returns the sentence containing the selection, trimmed. It
// returns "" when the span cannot be resolved inside its block, or when
// the sentence would merely duplicate the selection; context must add
// information.
func (e *SentenceExtractor) Extract(span selection.Span) string {
	block, start, end, err := span.Offsets()
	if err != nil {
		return ""
	}
	full := []rune(dom.FlattenText(block))
	if end > len(full) {
		return ""
	}

	// Sentence start: the first boundary behind the selection that is
	// followed by whitespace; the sentence begins two positions past it.
	sentStart := 0
	for i := start - 1; i >= 0; i-- {
		if e.detector.IsEnd(full, i) && i+1 < len(full) && unicode.IsSpace(full[i+1]) {
			sentStart = i + 2
			break
		}
	}

	// Sentence end: one past the first boundary at or after the selection.
	sentEnd := len(full)
	for i := end; i < len(full); i++ {
		if e.detector.IsEnd(full, i) {
			sentEnd = i + 1
			break
		}
	}

	if sentStart > sentEnd {
		return ""
	}
	window := strings.TrimSpace(string(full[sentStart:sentEnd]))
	if window == "" || window == strings.TrimSpace(string(full[start:end])) {
		return ""
	}
	return window
}
