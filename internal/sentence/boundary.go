// Package sentence decides whether a punctuation mark truly ends a
// sentence, using lightweight heuristics rather than a segmentation model.
package sentence

import (
	"strings"
	"unicode"
)

// Config carries the abbreviation sets the detector consults. Membership is
// configuration: the detector applies the same rules to whatever sets it is
// given, lower-cased, without trailing periods.
type Config struct {
	Abbreviations          []string
	SecondaryAbbreviations []string
}

// Detector classifies sentence-ending punctuation.
type Detector struct {
	abbrev map[string]bool
}

// NewDetector builds a detector from the given abbreviation sets.
func NewDetector(cfg Config) *Detector {
	abbrev := make(map[string]bool, len(cfg.Abbreviations)+len(cfg.SecondaryAbbreviations))
	for _, set := range [][]string{cfg.Abbreviations, cfg.SecondaryAbbreviations} {
		for _, a := range set {
			a = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(a), "."))
			if a != "" {
				abbrev[a] = true
			}
		}
	}
	return &Detector{abbrev: abbrev}
}

// IsSentenceEnd reports whether the rune at rune index i ends a sentence.
// Pure and total over any Unicode text: out-of-range indices are false.
func (d *Detector) IsSentenceEnd(text string, i int) bool {
	return d.IsEnd([]rune(text), i)
}

// IsEnd is the rune-slice form of IsSentenceEnd, for callers that scan many
// indices of the same text.
func (d *Detector) IsEnd(rs []rune, i int) bool {
	if i < 0 || i >= len(rs) {
		return false
	}
	switch rs[i] {
	case '!', '?':
		return true
	case '.':
	default:
		return false
	}

	// A period is a candidate only before whitespace or end-of-text. This
	// rules out URLs, decimals without a space, and mid-word abbreviations.
	if i+1 < len(rs) && !unicode.IsSpace(rs[i+1]) {
		return false
	}

	// Ellipsis guard.
	if i > 0 && rs[i-1] == '.' {
		return false
	}
	if i+1 < len(rs) && rs[i+1] == '.' {
		return false
	}

	// Decimal guard: digit before the period and the next non-space rune is
	// also a digit. "3.14" and "page 3. 4 more" stay inside a sentence;
	// "3. The answer" is a valid numbered-list sentence end.
	if i > 0 && unicode.IsDigit(rs[i-1]) {
		j := i + 1
		for j < len(rs) && unicode.IsSpace(rs[j]) {
			j++
		}
		if j < len(rs) && unicode.IsDigit(rs[j]) {
			return false
		}
	}

	// Contiguous run of letters immediately before the period.
	start := i
	for start > 0 && unicode.IsLetter(rs[start-1]) {
		start--
	}
	word := rs[start:i]

	if len(word) == 1 {
		// A single initial ("A.") ends a sentence only when the next word
		// plausibly starts a new one, i.e. begins upper-case.
		j := i + 1
		for j < len(rs) && unicode.IsSpace(rs[j]) {
			j++
		}
		return j < len(rs) && unicode.IsUpper(rs[j])
	}

	if d.abbrev[strings.ToLower(string(word))] {
		return false
	}

	return true
}
