// Package pipeline orchestrates the full annotation flow: fetch a page,
// locate the selected text, translate it and draw the marker, persisting a
// record so later visits can restore it.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/ilyakh/marginalia/internal/annotate"
	"github.com/ilyakh/marginalia/internal/cache"
	"github.com/ilyakh/marginalia/internal/dom"
	"github.com/ilyakh/marginalia/internal/extract"
	"github.com/ilyakh/marginalia/internal/model"
	"github.com/ilyakh/marginalia/internal/selection"
	"github.com/ilyakh/marginalia/internal/sentence"
	"github.com/ilyakh/marginalia/internal/store"
	"github.com/ilyakh/marginalia/internal/translate"
)

// Pipeline wires the fetcher, the extraction components, the annotation
// engine, the store and the translation provider together.
type Pipeline struct {
	fetcher   *Fetcher
	extractor *extract.SentenceExtractor
	engine    *annotate.Engine
	store     *store.Store
	restorer  *store.Restorer
	provider  translate.Provider // nil when translation is disabled
	config    *model.Config
}

// NewPipeline creates a pipeline over the given storage driver. A failed
// provider initialization disables translation but never the pipeline:
// cached payloads still annotate, restoration still works.
func NewPipeline(cfg *model.Config, kv cache.Cache) *Pipeline {
	var provider translate.Provider
	if cfg.Translate.Provider != "" {
		p, err := translate.NewProvider(translate.ConfigFromModel(cfg.Translate))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize translation provider: %v\n", err)
		} else {
			provider = p
		}
	}

	detector := sentence.NewDetector(sentence.Config{
		Abbreviations:          cfg.Language.Abbreviations,
		SecondaryAbbreviations: cfg.Language.SecondaryAbbreviations,
	})
	engine := annotate.NewEngine()
	st := store.New(kv)

	var pages cache.Cache
	if cfg.Cache.Enabled {
		pages = cache.NewMemory(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
	}

	return &Pipeline{
		fetcher:   NewFetcher(cfg, pages),
		extractor: extract.NewSentenceExtractor(detector),
		engine:    engine,
		store:     st,
		restorer:  store.NewRestorer(st, engine),
		provider:  provider,
		config:    cfg,
	}
}

// Store exposes the record store for listing, removal and export.
func (p *Pipeline) Store() *store.Store {
	return p.store
}

// AnnotateResult is the outcome of annotating one selection.
type AnnotateResult struct {
	HTML    string
	Record  model.HighlightRecord
	Cached  bool // payload came from an earlier identical lookup
	Marked  bool // marker drawn (false when the wrap failed; record still saved)
	Related int  // related markers drawn
}

// Annotate fetches the page, finds the occurrence-th instance of text,
// translates it in its sentence context and draws the marker. The wrap is
// best-effort: a selection the engine cannot mark is still translated and
// persisted.
func (p *Pipeline) Annotate(ctx context.Context, pageURL, text string, occurrence int) (*AnnotateResult, error) {
	fetchResult, err := p.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(fetchResult.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	matches := dom.FindText(doc, text, p.engine.SkipOwn)
	if len(matches) == 0 {
		return nil, fmt.Errorf("text %q not found on page", text)
	}
	if occurrence < 0 || occurrence >= len(matches) {
		return nil, fmt.Errorf("occurrence %d out of range: %q appears %d time(s)", occurrence, text, len(matches))
	}
	m := matches[occurrence]

	span, err := spanAt(m.Block, m.Start, len([]rune(text)))
	if err != nil {
		return nil, fmt.Errorf("resolve selection: %w", err)
	}

	trimmed, ok := selection.Trim(span)
	if !ok {
		return nil, fmt.Errorf("selection %q has no translatable text", text)
	}

	selText := trimmed.Text()
	sentenceCtx := p.extractor.Extract(trimmed)

	payload, cached := p.store.FindCached(pageURL, selText, sentenceCtx)
	if !cached {
		if p.provider == nil {
			return nil, fmt.Errorf("no translation provider configured and no cached translation for %q", selText)
		}
		req := translate.RequestFromModel(p.config.Translate)
		req.Text = selText
		req.Context = sentenceCtx
		fresh, err := p.provider.Translate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("translate: %w", err)
		}
		payload = fresh
	}

	key := payload.Lemma
	if key == "" {
		key = selText
	}

	result := &AnnotateResult{Cached: cached}

	if err := p.engine.Annotate(trimmed, selText, key, payload.Translation); err != nil {
		if p.config.Output.Verbose {
			fmt.Fprintf(os.Stderr, "Warning: could not draw marker for %q: %v\n", selText, err)
		}
	} else {
		result.Marked = true
		block := trimmed.Block()
		for _, rel := range payload.RelatedSpans {
			if p.engine.AnnotateRelated(block, sentenceCtx, rel, key) {
				result.Related++
			}
		}
	}

	record := model.HighlightRecord{
		PageURL: pageURL,
		Text:    selText,
		Lemma:   payload.Lemma,
		Payload: *payload,
		Context: sentenceCtx,
	}
	if err := p.store.Save(record); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}
	result.Record = record

	rendered, err := renderHTML(doc)
	if err != nil {
		return nil, err
	}
	result.HTML = rendered

	return result, nil
}

// Restore fetches the page and redraws every stored marker for it.
func (p *Pipeline) Restore(ctx context.Context, pageURL string) (*model.RestoreResult, error) {
	fetchResult, err := p.fetcher.FetchWithRetry(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(fetchResult.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	res, err := p.restorer.RestoreAll(doc, pageURL)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	rendered, err := renderHTML(doc)
	if err != nil {
		return nil, err
	}

	return &model.RestoreResult{
		URL:      pageURL,
		HTML:     rendered,
		Restored: res.Restored,
		Skipped:  res.Skipped,
	}, nil
}

// spanAt builds the span covering length runes starting at global offset
// start within block.
func spanAt(block *html.Node, start, length int) (selection.Span, error) {
	sp, err := dom.Locate(block, start)
	if err != nil {
		return selection.Span{}, err
	}
	ep, err := dom.Locate(block, start+length)
	if err != nil {
		return selection.Span{}, err
	}
	return selection.Span{Start: sp, End: ep}, nil
}

func renderHTML(doc *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}
