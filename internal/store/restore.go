package store

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/ilyakh/marginalia/internal/annotate"
	"github.com/ilyakh/marginalia/internal/dom"
	"github.com/ilyakh/marginalia/internal/model"
	"github.com/ilyakh/marginalia/internal/selection"
)

// Restorer re-locates stored records in a live document and redraws them.
type Restorer struct {
	store  *Store
	engine *annotate.Engine
}

// NewRestorer creates a restorer.
func NewRestorer(s *Store, e *annotate.Engine) *Restorer {
	return &Restorer{store: s, engine: e}
}

// Result reports the outcome of a restoration pass. Skips are not errors:
// a record that no longer locates means the page content changed since the
// annotation was made.
type Result struct {
	Restored int
	Skipped  int
}

// RestoreAll redraws every stored record for the page into doc. Each
// record is searched as literal text, skipping text inside markers and UI
// chrome; when the record carries a context, the occurrence's enclosing
// block must also contain the middle portion of that context. Occurrences
// are tried in document order until one qualifies; records with no
// qualifying occurrence are silently skipped.
func (r *Restorer) RestoreAll(doc *html.Node, pageURL string) (Result, error) {
	records, err := r.store.List(pageURL)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, rec := range records {
		if r.restoreOne(doc, rec) {
			res.Restored++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

func (r *Restorer) restoreOne(doc *html.Node, rec model.HighlightRecord) bool {
	middle := contextMiddle(rec.Context)
	length := utf8.RuneCountInString(rec.Text)

	for _, m := range dom.FindText(doc, rec.Text, r.engine.SkipOwn) {
		if middle != "" && !strings.Contains(dom.FlattenText(m.Block), middle) {
			continue
		}
		start, err := dom.Locate(m.Block, m.Start)
		if err != nil {
			continue
		}
		end, err := dom.Locate(m.Block, m.Start+length)
		if err != nil {
			continue
		}
		span := selection.Span{Start: start, End: end}
		if err := r.engine.Annotate(span, rec.Text, rec.DedupKey(), rec.Payload.Translation); err != nil {
			continue
		}
		for _, rel := range rec.Payload.RelatedSpans {
			r.engine.AnnotateRelated(m.Block, rec.Context, rel, rec.DedupKey())
		}
		return true
	}
	return false
}

// contextMiddle trims roughly ten runes from each side of the stored
// context so minor whitespace or markup drift around the sentence does not
// defeat the containment check. Short contexts are used whole.
func contextMiddle(context string) string {
	rs := []rune(strings.TrimSpace(context))
	if len(rs) > 20 {
		rs = rs[10 : len(rs)-10]
	}
	return strings.TrimSpace(string(rs))
}
