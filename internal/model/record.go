package model

import (
	"net/url"
	"time"
)

// HighlightRecord is the serializable form of an annotation.
type HighlightRecord struct {
	ID        string             `json:"id"`
	PageURL   string             `json:"page_url"`
	Text      string             `json:"text"`                 // literal source text as selected
	Lemma     string             `json:"lemma,omitempty"`      // canonical form, if known
	Payload   TranslationPayload `json:"payload"`
	Context   string             `json:"context,omitempty"`    // containing sentence (or empty)
	CreatedAt time.Time          `json:"created_at"`
}

// DedupKey returns the identity key used for deduplication and removal:
// the canonical form if present, else the literal text. Two inflected
// forms sharing a lemma are treated as the same entry.
func (r HighlightRecord) DedupKey() string {
	if r.Lemma != "" {
		return r.Lemma
	}
	return r.Text
}

// PageKey reduces a URL to its page identity: origin plus path, with query
// and fragment dropped so pagination/tracking parameters don't fragment a
// page's history. Unparseable URLs are used verbatim.
func PageKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + parsed.Host + parsed.Path
}
