// Package translate is the network translation boundary: given a text and
// its sentence context it returns a translation payload. Providers are
// opaque request/response services; failures surface as errors and are
// never retried automatically.
package translate

import (
	"context"
	"fmt"

	"github.com/ilyakh/marginalia/internal/model"
)

// Request is a single translation request.
type Request struct {
	// Text is the selected word or phrase.
	Text string

	// Context is the containing sentence, used to disambiguate senses.
	// May be empty.
	Context string

	// SourceLang is an ISO 639-1 code or "auto".
	SourceLang string

	// TargetLang is an ISO 639-1 code.
	TargetLang string

	// Mode is "simple" (translation only) or "smart" (full analysis with
	// meaning, breakdown, lemma, related spans).
	Mode string
}

// Provider defines the translation boundary.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Translate performs one translation request.
	Translate(ctx context.Context, req Request) (*model.TranslationPayload, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "".
	Provider string

	// Model name (provider-specific).
	Model string

	// APIKey for OpenAI/Anthropic.
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama).
	BaseURL string

	// Timeout for API requests, in seconds.
	Timeout int

	// MaxTokens limits the response length.
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 500,
	}
}

const systemPrompt = "You are a precise translation assistant for a reading aid. " +
	"Follow the response format exactly and add nothing else."

// buildPrompt renders the user prompt for a request. Simple mode asks for
// the bare translation; smart mode asks for a JSON object matching the
// TranslationPayload schema so the reply can be parsed structurally.
func buildPrompt(req Request) string {
	source := req.SourceLang
	if source == "" {
		source = "auto"
	}
	context := req.Context
	if context == "" {
		context = "(no context provided)"
	}

	if req.Mode == "simple" {
		return fmt.Sprintf(
			"Translate the following text from %s to %s.\nReturn ONLY the translation, nothing else.\n\nText: %s",
			source, req.TargetLang, req.Text)
	}

	return fmt.Sprintf(`Translate %q from %s to %s.
Context: %q

Respond with a single JSON object, no prose, using exactly these fields
(omit any field that does not apply):
{
  "translation": "the translation of the text",
  "meaning": "one sentence explaining the meaning in this context",
  "breakdown": "grammar or word-formation notes, one sentence",
  "context_translation": {"source": "the context sentence", "target": "its translation"},
  "lemma": "the dictionary form of the word",
  "related_spans": [{"text": "a separated particle belonging to this word in the context", "offset": 0}]
}
"offset" is the character offset of the related particle within the context sentence.
Only include "related_spans" for separable or split expressions.`,
		req.Text, source, req.TargetLang, context)
}
