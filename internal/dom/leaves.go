// Package dom provides traversal and position mapping over parsed HTML
// trees: flattening visible text, resolving block scopes, and translating
// between global text offsets and (node, local offset) pairs.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedTags never contribute visible text.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"template": true,
}

// blockTags classify block-level structural elements, the unit of local
// text for offset flattening and sentence search.
var blockTags = map[string]bool{
	"p": true, "li": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"article": true, "section": true, "div": true, "blockquote": true,
	"dd": true, "dt": true, "figcaption": true, "pre": true, "caption": true,
	"body": true,
}

// VisitTextLeaves walks all text-bearing leaf nodes under root in document
// order, calling visit for each. Returning false from visit stops the walk.
// Script/style-like subtrees are skipped.
func VisitTextLeaves(root *html.Node, visit func(*html.Node) bool) bool {
	if root == nil {
		return true
	}
	if root.Type == html.ElementNode && skippedTags[root.Data] {
		return true
	}
	if root.Type == html.TextNode {
		return visit(root)
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if !VisitTextLeaves(c, visit) {
			return false
		}
	}
	return true
}

// FlattenText concatenates the text of all leaves under root, in document
// order, with no separators. The result is the coordinate space used by the
// position mapper.
func FlattenText(root *html.Node) string {
	var buf strings.Builder
	VisitTextLeaves(root, func(leaf *html.Node) bool {
		buf.WriteString(leaf.Data)
		return true
	})
	return buf.String()
}

// IsBlock reports whether n is a block-level structural element.
func IsBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockTags[n.Data]
}

// BlockScope returns the nearest block-level ancestor fully containing n
// (n itself if it is one), or nil when no block ancestor exists.
func BlockScope(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if IsBlock(n) {
			return n
		}
	}
	return nil
}

// CommonBlock returns the block scope of the nearest common ancestor of a
// and b, or nil if the nodes share no ancestry.
func CommonBlock(a, b *html.Node) *html.Node {
	seen := make(map[*html.Node]bool)
	for n := a; n != nil; n = n.Parent {
		seen[n] = true
	}
	for n := b; n != nil; n = n.Parent {
		if seen[n] {
			return BlockScope(n)
		}
	}
	return nil
}

// Contains reports whether node is root or a descendant of root.
func Contains(root, node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// Normalize merges adjacent text-node children of parent and drops empty
// ones, mirroring what the DOM's normalize() does after an unwrap.
func Normalize(parent *html.Node) {
	c := parent.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode {
			if c.Data == "" {
				parent.RemoveChild(c)
			} else if next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				parent.RemoveChild(next)
				continue // retry merge with the new next sibling
			}
		}
		c = next
	}
}
