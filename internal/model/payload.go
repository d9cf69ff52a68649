package model

import "strings"

// RelatedSpan is a secondary text location that belongs to the same
// translation as the primary span, e.g. the separated prefix of a German
// separable verb. Offset is a rune offset into the context sentence the
// translation was made against.
type RelatedSpan struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// ContextTranslation pairs the source sentence with its translation.
type ContextTranslation struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// TranslationPayload is the result of a translation request. A payload with
// only Translation set is semantically simple and rendered the same as a raw
// string; the remaining fields are present in smart mode only.
type TranslationPayload struct {
	Translation        string              `json:"translation"`
	Meaning            string              `json:"meaning,omitempty"`
	Breakdown          string              `json:"breakdown,omitempty"`
	ContextTranslation *ContextTranslation `json:"context_translation,omitempty"`
	Lemma              string              `json:"lemma,omitempty"`
	RelatedSpans       []RelatedSpan       `json:"related_spans,omitempty"`
}

// SimplePayload wraps a plain translation string.
func SimplePayload(translation string) TranslationPayload {
	return TranslationPayload{Translation: strings.TrimSpace(translation)}
}

// IsSimple reports whether the payload carries nothing beyond the
// translation itself.
func (p TranslationPayload) IsSimple() bool {
	return p.Meaning == "" && p.Breakdown == "" && p.ContextTranslation == nil &&
		p.Lemma == "" && len(p.RelatedSpans) == 0
}
