package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// LeafFilter reports whether a text leaf should be excluded from a search,
// e.g. because it sits inside an existing marker or transient UI.
type LeafFilter func(*html.Node) bool

// Match is an occurrence of a needle inside a block, as a global rune
// offset into the block's flattened text.
type Match struct {
	Block *html.Node
	Start int
}

// Occurrences returns the global rune offsets of every occurrence of
// needle in block's flattened text whose runes all lie in leaves not
// excluded by skip. skip may be nil.
func Occurrences(block *html.Node, needle string, skip LeafFilter) []int {
	target := []rune(needle)
	if block == nil || len(target) == 0 {
		return nil
	}

	var (
		text     []rune
		excluded []bool
	)
	VisitTextLeaves(block, func(leaf *html.Node) bool {
		ex := skip != nil && skip(leaf)
		for _, r := range leaf.Data {
			text = append(text, r)
			excluded = append(excluded, ex)
		}
		return true
	})

	var out []int
	for i := 0; i+len(target) <= len(text); i++ {
		if !runesMatch(text[i:i+len(target)], target) {
			continue
		}
		ok := true
		for j := i; j < i+len(target); j++ {
			if excluded[j] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// FindText searches the whole document in document order for occurrences
// of needle, block by block, honoring the skip filter. Blocks are visited
// in the order their first text leaf appears. Each physical occurrence is
// reported once, against the innermost block containing all its runes: an
// ancestor block's flattened text also covers nested blocks, so ancestors
// keep only matches that actually span their direct text.
func FindText(doc *html.Node, needle string, skip LeafFilter) []Match {
	visited := make(map[*html.Node]bool)
	runeLen := len([]rune(needle))
	var matches []Match

	VisitTextLeaves(doc, func(leaf *html.Node) bool {
		if skip != nil && skip(leaf) {
			return true
		}
		if strings.TrimSpace(leaf.Data) == "" {
			return true
		}
		block := BlockScope(leaf)
		if block == nil || visited[block] {
			return true
		}
		visited[block] = true
		for _, off := range Occurrences(block, needle, skip) {
			if innermostBlock(block, off, runeLen) != block {
				continue
			}
			matches = append(matches, Match{Block: block, Start: off})
		}
		return true
	})
	return matches
}

// innermostBlock resolves the tightest block scope containing all runes of
// the span [off, off+n) in block's flattened text. It returns block itself
// when the span crosses out of any nested block, nil when the endpoints
// cannot be located.
func innermostBlock(block *html.Node, off, n int) *html.Node {
	first, err := Locate(block, off)
	if err != nil {
		return nil
	}
	last, err := Locate(block, off+n-1)
	if err != nil {
		return nil
	}
	return CommonBlock(first.Node, last.Node)
}

func runesMatch(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
