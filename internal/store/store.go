// Package store persists highlight records keyed by page identity and
// restores them into live documents.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ilyakh/marginalia/internal/cache"
	"github.com/ilyakh/marginalia/internal/model"
)

const (
	kindHighlights = "highlights"
	kindIndex      = "index"
)

// Store reads and writes highlight records through the opaque key-value
// storage boundary. Records are grouped per page identity (origin+path);
// a separate index record keeps the set of known pages enumerable for
// export. Concurrent writers from multiple tabs race read-modify-write;
// last write wins, which is accepted for rare, user-driven edits.
type Store struct {
	kv cache.Cache
}

// New creates a store over the given storage driver.
func New(kv cache.Cache) *Store {
	return &Store{kv: kv}
}

// List returns the stored records for the page, oldest first, as saved.
func (s *Store) List(pageURL string) ([]model.HighlightRecord, error) {
	return s.load(model.PageKey(pageURL))
}

// Save appends the record to its page's list. An earlier record with the
// same literal text and context is replaced (a refreshed translation);
// records merely sharing a canonical form coexist and collapse in
// canonical-form-keyed views instead. Missing ID and timestamp are filled
// in.
func (s *Store) Save(rec model.HighlightRecord) error {
	if rec.Text == "" {
		return fmt.Errorf("save: record has no text")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	page := model.PageKey(rec.PageURL)
	records, err := s.load(page)
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, r := range records {
		if r.Text != rec.Text || r.Context != rec.Context {
			kept = append(kept, r)
		}
	}
	kept = append(kept, rec)

	if err := s.save(page, kept); err != nil {
		return err
	}
	return s.indexPage(page)
}

// Remove drops every record on the page whose dedup key matches, so
// inflected forms sharing a canonical form are removed together. Returns
// how many records were dropped.
func (s *Store) Remove(pageURL, key string) (int, error) {
	page := model.PageKey(pageURL)
	records, err := s.load(page)
	if err != nil {
		return 0, err
	}

	kept := records[:0]
	removed := 0
	for _, r := range records {
		if r.DedupKey() == key {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(page, kept)
}

// FindCached returns the stored payload for an exact literal-text and
// exact context match. Canonical forms deliberately do not match here: a
// cached translation for one sense of a word must not be reused for a
// different sentence.
func (s *Store) FindCached(pageURL, text, context string) (*model.TranslationPayload, bool) {
	records, err := s.load(model.PageKey(pageURL))
	if err != nil {
		return nil, false
	}
	for i := range records {
		if records[i].Text == text && records[i].Context == context {
			payload := records[i].Payload
			return &payload, true
		}
	}
	return nil, false
}

// Pages returns the page identities that have stored records.
func (s *Store) Pages() ([]string, error) {
	data, found := s.kv.Get(cache.Key(kindIndex, "pages"))
	if !found {
		return nil, nil
	}
	var pages []string
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("decode page index: %w", err)
	}
	return pages, nil
}

// AllRecords returns every stored record across all pages.
func (s *Store) AllRecords() ([]model.HighlightRecord, error) {
	pages, err := s.Pages()
	if err != nil {
		return nil, err
	}
	var out []model.HighlightRecord
	for _, page := range pages {
		records, err := s.load(page)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (s *Store) load(page string) ([]model.HighlightRecord, error) {
	data, found := s.kv.Get(cache.Key(kindHighlights, page))
	if !found {
		return nil, nil
	}
	var records []model.HighlightRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records for %s: %w", page, err)
	}
	return records, nil
}

func (s *Store) save(page string, records []model.HighlightRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records for %s: %w", page, err)
	}
	return s.kv.Set(cache.Key(kindHighlights, page), data, 0)
}

func (s *Store) indexPage(page string) error {
	pages, err := s.Pages()
	if err != nil {
		return err
	}
	for _, p := range pages {
		if p == page {
			return nil
		}
	}
	pages = append(pages, page)
	data, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("encode page index: %w", err)
	}
	return s.kv.Set(cache.Key(kindIndex, "pages"), data, 0)
}
