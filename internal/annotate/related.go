package annotate

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/ilyakh/marginalia/internal/dom"
	"github.com/ilyakh/marginalia/internal/model"
)

// AnnotateRelated draws a secondary marker for a related span (e.g. the
// separated particle of a multi-word expression) inside block, under the
// same key as the primary annotation. The related span's offset hint is
// relative to the context string the translation was made against; when
// the hint fails to resolve, a plain first-occurrence search is used,
// skipping positions already inside markers or UI chrome. Reports whether
// a marker was drawn.
func (e *Engine) AnnotateRelated(block *html.Node, context string, rel model.RelatedSpan, key string) bool {
	target := []rune(rel.Text)
	if block == nil || len(target) == 0 {
		return false
	}
	full := []rune(dom.FlattenText(block))

	pos := -1
	if ctx := strings.TrimSpace(context); ctx != "" && rel.Offset >= 0 {
		if ctxOffs := dom.Occurrences(block, ctx, nil); len(ctxOffs) > 0 {
			hint := ctxOffs[0] + rel.Offset
			if hint+len(target) <= len(full) && runesMatch(full[hint:hint+len(target)], target) && !e.insideMarker(block, hint) {
				pos = hint
			}
		}
	}
	if pos < 0 {
		offs := dom.Occurrences(block, rel.Text, e.SkipOwn)
		if len(offs) == 0 {
			return false
		}
		pos = offs[0]
	}

	attrs := []html.Attribute{
		{Key: "class", Val: MarkerClass},
		{Key: KeyAttr, Val: key},
		{Key: RelatedAttr, Val: "true"},
	}
	return e.wrapRange(block, pos, pos+len(target), attrs) == nil
}

// insideMarker reports whether the leaf holding the global offset already
// sits inside a marker or UI chrome.
func (e *Engine) insideMarker(block *html.Node, global int) bool {
	pos, err := dom.Locate(block, global)
	if err != nil {
		return true
	}
	return e.IsOwnElement(pos.Node)
}

func runesMatch(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
