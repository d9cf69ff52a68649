// Package annotate draws, resolves and removes visual markers around text
// spans in an HTML tree.
package annotate

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ilyakh/marginalia/internal/dom"
	"github.com/ilyakh/marginalia/internal/selection"
)

const (
	// MarkerTag is the element wrapped around annotated spans.
	MarkerTag = "mark"
	// MarkerClass styles the marker.
	MarkerClass = "marginalia-mark"
	// KeyAttr carries the record's dedup key on a marker.
	KeyAttr = "data-mark-key"
	// RelatedAttr flags a secondary marker belonging to another span's
	// translation.
	RelatedAttr = "data-mark-related"
	// UIAttr flags transient UI chrome (selection button, tooltip) that
	// must never be treated as page content.
	UIAttr = "data-marginalia-ui"
)

// Engine wraps and unwraps markers. All mutations are synchronous and
// leave the tree well-formed on every exit path.
type Engine struct{}

// NewEngine creates an annotation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// IsMarker reports whether n is a marker element drawn by this engine.
func (e *Engine) IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.Data != MarkerTag {
		return false
	}
	return getAttr(n, KeyAttr) != "" || getAttr(n, RelatedAttr) != ""
}

// IsOwnElement reports whether n sits inside a marker or inside transient
// UI chrome. Document-level input handlers use this to avoid treating
// interaction with our own elements as a new selection.
func (e *Engine) IsOwnElement(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if e.IsMarker(n) {
			return true
		}
		if n.Type == html.ElementNode && getAttr(n, UIAttr) != "" {
			return true
		}
	}
	return false
}

// SkipOwn is a dom.LeafFilter excluding text inside markers and UI chrome.
func (e *Engine) SkipOwn(leaf *html.Node) bool {
	return e.IsOwnElement(leaf)
}

// Annotate wraps the span in a marker carrying key and translation.
// Re-annotating a span already inside a marker with identical text is a
// no-op; distinct markers overlapping the span are unwrapped first, the
// newer annotation superseding them. Returns an error only when the span
// cannot be resolved; callers treat that as a no-op annotation.
func (e *Engine) Annotate(span selection.Span, sourceText, key, translation string) error {
	block, gs, ge, err := span.Offsets()
	if err != nil {
		return fmt.Errorf("resolve span: %w", err)
	}
	if gs == ge {
		return fmt.Errorf("annotate: empty span")
	}

	// Idempotent re-annotation.
	if m := e.enclosingMarker(span.Start.Node); m != nil && dom.FlattenText(m) == sourceText {
		return nil
	}

	// Unwrap any overlapping markers. Unwrapping preserves the block's
	// flattened text, so the global offsets stay valid afterwards.
	for _, m := range e.markersIn(block) {
		ms, me, ok := e.markerRange(block, m)
		if !ok {
			continue
		}
		if ge >= ms && gs <= me {
			e.Unwrap(m)
		}
	}

	attrs := []html.Attribute{
		{Key: "class", Val: MarkerClass},
		{Key: KeyAttr, Val: key},
		{Key: "title", Val: translation},
	}
	return e.wrapRange(block, gs, ge, attrs)
}

// Unwrap replaces the marker with its children in place and merges the
// surrounding text nodes. Content outside the marker is unaffected.
func (e *Engine) Unwrap(marker *html.Node) {
	parent := marker.Parent
	if parent == nil {
		return
	}
	for marker.FirstChild != nil {
		c := marker.FirstChild
		marker.RemoveChild(c)
		parent.InsertBefore(c, marker)
	}
	parent.RemoveChild(marker)
	dom.Normalize(parent)
}

// RemoveByKey unwraps every marker in doc whose key matches, returning how
// many were removed.
func (e *Engine) RemoveByKey(doc *html.Node, key string) int {
	removed := 0
	for _, m := range e.markersIn(doc) {
		if getAttr(m, KeyAttr) == key {
			e.Unwrap(m)
			removed++
		}
	}
	return removed
}

// wrapRange draws a single marker around [gs, ge) in block's flattened
// text. It first attempts a direct structural wrap; when the range crosses
// element boundaries so that direct wrapping would not be well-formed, it
// falls back to extracting the range, flattening it to text, and
// reinserting it wrapped, so the tree stays well-formed on every path.
func (e *Engine) wrapRange(block *html.Node, gs, ge int, attrs []html.Attribute) error {
	start, err := dom.Locate(block, gs)
	if err != nil {
		return fmt.Errorf("locate start: %w", err)
	}
	end, err := dom.Locate(block, ge)
	if err != nil {
		return fmt.Errorf("locate end: %w", err)
	}

	// An end boundary at the start of a leaf really finishes at the end of
	// the leaf before it.
	if end.Offset == 0 && end.Node != start.Node {
		prev := prevLeaf(block, end.Node)
		if prev == nil {
			return fmt.Errorf("locate end: %w", dom.ErrNotFound)
		}
		end = dom.Position{Node: prev, Offset: utf8.RuneCountInString(prev.Data)}
	}

	if start.Node == end.Node {
		e.wrapWithinLeaf(start.Node, start.Offset, end.Offset, attrs)
		return nil
	}
	if start.Node.Parent != nil && start.Node.Parent == end.Node.Parent {
		e.wrapSiblingRun(start, end, attrs)
		return nil
	}
	return e.extractFlattenRewrap(block, gs, ge, attrs)
}

// wrapWithinLeaf splits one text leaf into [before][marker(mid)][after].
func (e *Engine) wrapWithinLeaf(leaf *html.Node, so, eo int, attrs []html.Attribute) {
	parent := leaf.Parent
	rs := []rune(leaf.Data)
	before, mid, after := string(rs[:so]), string(rs[so:eo]), string(rs[eo:])

	marker := newMarker(attrs)
	marker.AppendChild(&html.Node{Type: html.TextNode, Data: mid})

	parent.InsertBefore(marker, leaf)
	if before != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: before}, marker)
	}
	if after != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: after}, leaf)
	}
	parent.RemoveChild(leaf)
}

// wrapSiblingRun wraps a run of siblings between two text leaves that
// share a parent. Whole elements sitting between the boundary leaves move
// into the marker intact.
func (e *Engine) wrapSiblingRun(start, end dom.Position, attrs []html.Attribute) {
	parent := start.Node.Parent

	// Split the boundary leaves so the run covers exactly the span.
	first := splitLeafAfter(start.Node, start.Offset)
	last := splitLeafBefore(end.Node, end.Offset)
	if first == nil || last == nil {
		return
	}

	marker := newMarker(attrs)
	parent.InsertBefore(marker, first)
	for {
		next := marker.NextSibling
		if next == nil {
			break
		}
		parent.RemoveChild(next)
		marker.AppendChild(next)
		if next == last {
			break
		}
	}
	dom.Normalize(parent)
}

// extractFlattenRewrap removes the range's runes from every intersecting
// leaf, prunes emptied elements, and reinserts the range as plain text
// inside a single marker at the start position. Structure inside the
// extracted fragment is flattened; structure outside it is untouched.
func (e *Engine) extractFlattenRewrap(block *html.Node, gs, ge int, attrs []html.Attribute) error {
	type segment struct {
		leaf  *html.Node
		start int // leaf's global start offset
	}

	full := []rune(dom.FlattenText(block))
	if ge > len(full) {
		return fmt.Errorf("extract range: %w", dom.ErrNotFound)
	}
	text := string(full[gs:ge])

	var segs []segment
	total := 0
	dom.VisitTextLeaves(block, func(leaf *html.Node) bool {
		n := utf8.RuneCountInString(leaf.Data)
		if total < ge && total+n > gs {
			segs = append(segs, segment{leaf: leaf, start: total})
		}
		total += n
		return total < ge
	})
	if len(segs) == 0 {
		return fmt.Errorf("extract range: %w", dom.ErrNotFound)
	}

	// Cut the covered runes out of each leaf.
	for _, s := range segs {
		rs := []rune(s.leaf.Data)
		lo := gs - s.start
		if lo < 0 {
			lo = 0
		}
		hi := ge - s.start
		if hi > len(rs) {
			hi = len(rs)
		}
		s.leaf.Data = string(rs[:lo]) + string(rs[hi:])
	}

	marker := newMarker(attrs)
	marker.AppendChild(&html.Node{Type: html.TextNode, Data: text})

	firstLeaf := segs[0].leaf
	parent := firstLeaf.Parent
	if gs > segs[0].start {
		// The first leaf keeps a prefix; the marker goes right after it.
		parent.InsertBefore(marker, firstLeaf.NextSibling)
	} else {
		parent.InsertBefore(marker, firstLeaf)
	}

	for _, s := range segs {
		if s.leaf.Data == "" {
			pruneEmpty(s.leaf, block)
		}
	}
	dom.Normalize(parent)
	return nil
}

// enclosingMarker returns the nearest marker ancestor of n, or nil.
func (e *Engine) enclosingMarker(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if e.IsMarker(n) {
			return n
		}
	}
	return nil
}

// markersIn collects markers under root in document order.
func (e *Engine) markersIn(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if e.IsMarker(n) {
			out = append(out, n)
			return // markers never nest
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// markerRange resolves a marker's [start, end] global offsets in block.
func (e *Engine) markerRange(block, marker *html.Node) (int, int, bool) {
	var firstLeaf *html.Node
	dom.VisitTextLeaves(marker, func(leaf *html.Node) bool {
		firstLeaf = leaf
		return false
	})
	if firstLeaf == nil {
		return 0, 0, false
	}
	ms, err := dom.OffsetOf(block, firstLeaf, 0)
	if err != nil {
		return 0, 0, false
	}
	return ms, ms + utf8.RuneCountInString(dom.FlattenText(marker)), true
}

func newMarker(attrs []html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     MarkerTag,
		DataAtom: atom.Mark,
		Attr:     attrs,
	}
}

// splitLeafAfter splits a text leaf at offset and returns the node holding
// the runes from offset on (the leaf itself when offset is 0).
func splitLeafAfter(leaf *html.Node, offset int) *html.Node {
	if offset == 0 {
		return leaf
	}
	rs := []rune(leaf.Data)
	if offset >= len(rs) {
		return nil
	}
	rest := &html.Node{Type: html.TextNode, Data: string(rs[offset:])}
	leaf.Data = string(rs[:offset])
	leaf.Parent.InsertBefore(rest, leaf.NextSibling)
	return rest
}

// splitLeafBefore splits a text leaf at offset and returns the node
// holding the runes before offset (the leaf itself when offset covers it).
func splitLeafBefore(leaf *html.Node, offset int) *html.Node {
	rs := []rune(leaf.Data)
	if offset >= len(rs) {
		return leaf
	}
	if offset <= 0 {
		return leaf.PrevSibling
	}
	head := &html.Node{Type: html.TextNode, Data: string(rs[:offset])}
	leaf.Data = string(rs[offset:])
	leaf.Parent.InsertBefore(head, leaf)
	return head
}

// pruneEmpty removes an emptied leaf and any inline ancestors left with no
// children, stopping at the block boundary.
func pruneEmpty(leaf, block *html.Node) {
	n := leaf
	for n != nil && n != block {
		parent := n.Parent
		if parent == nil {
			return
		}
		if n.FirstChild != nil {
			return
		}
		if n.Type == html.TextNode && n.Data != "" {
			return
		}
		parent.RemoveChild(n)
		n = parent
	}
}

// prevLeaf returns the text leaf immediately before node in block's
// document order, or nil.
func prevLeaf(block, node *html.Node) *html.Node {
	var prev *html.Node
	dom.VisitTextLeaves(block, func(leaf *html.Node) bool {
		if leaf == node {
			return false
		}
		prev = leaf
		return true
	})
	return prev
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
