package dom

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// ErrNotFound reports that a node or offset could not be resolved inside
// the given block.
var ErrNotFound = errors.New("dom: position not found in block")

// Position is a (text node, local rune offset) pair. Offsets count runes,
// not bytes, so they line up with the flattened-text coordinate space.
type Position struct {
	Node   *html.Node
	Offset int
}

// OffsetOf maps a (target, local) pair to a global rune offset within
// block's flattened text: the summed lengths of all text leaves strictly
// before target, plus local. The mapping is recomputed from scratch on
// every call; node identities and lengths are not stable across marker
// wrap/unwrap mutations, so nothing here may be cached.
func OffsetOf(block, target *html.Node, local int) (int, error) {
	if block == nil || target == nil {
		return 0, ErrNotFound
	}
	total := 0
	found := false
	VisitTextLeaves(block, func(leaf *html.Node) bool {
		if leaf == target {
			found = true
			return false
		}
		total += utf8.RuneCountInString(leaf.Data)
		return true
	})
	if !found {
		return 0, ErrNotFound
	}
	return total + local, nil
}

// Locate is the inverse of OffsetOf: it finds the text leaf whose
// cumulative span contains the global rune offset. An offset equal to the
// block's total flattened length resolves to the end of the last leaf;
// anything beyond is ErrNotFound.
func Locate(block *html.Node, global int) (Position, error) {
	if block == nil || global < 0 {
		return Position{}, ErrNotFound
	}
	var (
		pos   Position
		found bool
		total int
		last  *html.Node
	)
	VisitTextLeaves(block, func(leaf *html.Node) bool {
		n := utf8.RuneCountInString(leaf.Data)
		if global < total+n {
			pos = Position{Node: leaf, Offset: global - total}
			found = true
			return false
		}
		total += n
		last = leaf
		return true
	})
	if found {
		return pos, nil
	}
	if last != nil && global == total {
		return Position{Node: last, Offset: utf8.RuneCountInString(last.Data)}, nil
	}
	return Position{}, ErrNotFound
}
