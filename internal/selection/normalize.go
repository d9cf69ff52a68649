// Package selection normalizes raw user selections into tight spans that
// start and end on a letter or digit.
package selection

import (
	"unicode"

	"golang.org/x/net/html"

	"github.com/ilyakh/marginalia/internal/dom"
)

// Span is a contiguous run of visible text between two document positions.
// Start is inclusive, End exclusive, and Start precedes End in document
// order.
type Span struct {
	Start dom.Position
	End   dom.Position
}

// Block returns the nearest block scope fully containing the span, or nil
// when the endpoints share no block ancestor.
func (s Span) Block() *html.Node {
	return dom.CommonBlock(s.Start.Node, s.End.Node)
}

// Offsets resolves the span's endpoints to global rune offsets within its
// block scope.
func (s Span) Offsets() (block *html.Node, start, end int, err error) {
	block = s.Block()
	if block == nil {
		return nil, 0, 0, dom.ErrNotFound
	}
	start, err = dom.OffsetOf(block, s.Start.Node, s.Start.Offset)
	if err != nil {
		return nil, 0, 0, err
	}
	end, err = dom.OffsetOf(block, s.End.Node, s.End.Offset)
	if err != nil {
		return nil, 0, 0, err
	}
	if end < start {
		return nil, 0, 0, dom.ErrNotFound
	}
	return block, start, end, nil
}

// Text reads the span's plain text out of its block scope.
func (s Span) Text() string {
	block, start, end, err := s.Offsets()
	if err != nil {
		return ""
	}
	full := []rune(dom.FlattenText(block))
	if end > len(full) {
		return ""
	}
	return string(full[start:end])
}

// Trim shrinks a raw selection to the tightest sub-span that starts and
// ends on a Unicode letter or number, discarding surrounding punctuation
// and whitespace. Returns ok=false when the selection contains no
// alphanumeric rune at all, or cannot be resolved.
func Trim(raw Span) (Span, bool) {
	block, start, end, err := raw.Offsets()
	if err != nil {
		return Span{}, false
	}
	full := []rune(dom.FlattenText(block))
	if end > len(full) {
		return Span{}, false
	}
	text := full[start:end]

	first := -1
	last := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Span{}, false
	}

	newStart, err := dom.Locate(block, start+first)
	if err != nil {
		return Span{}, false
	}
	newEnd, err := dom.Locate(block, start+last+1)
	if err != nil {
		return Span{}, false
	}
	return Span{Start: newStart, End: newEnd}, true
}
