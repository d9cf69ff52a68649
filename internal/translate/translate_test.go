package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParsePayload_PlainText(t *testing.T) {
	payload := parsePayload("die Tür")

	if payload.Translation != "die Tür" {
		t.Errorf("Expected translation 'die Tür', got %q", payload.Translation)
	}
	if !payload.IsSimple() {
		t.Error("Expected simple payload for plain text reply")
	}
}

func TestParsePayload_StructuredJSON(t *testing.T) {
	raw := `{
		"translation": "to open",
		"meaning": "to make something accessible",
		"breakdown": "separable verb aufmachen, split in main clauses",
		"context_translation": {"source": "Er macht die Tür auf.", "target": "He opens the door."},
		"lemma": "aufmachen",
		"related_spans": [{"text": "auf", "offset": 17}]
	}`

	payload := parsePayload(raw)

	if payload.Translation != "to open" {
		t.Errorf("Expected translation 'to open', got %q", payload.Translation)
	}
	if payload.Lemma != "aufmachen" {
		t.Errorf("Expected lemma 'aufmachen', got %q", payload.Lemma)
	}
	if payload.ContextTranslation == nil || payload.ContextTranslation.Target != "He opens the door." {
		t.Errorf("Expected context translation, got %+v", payload.ContextTranslation)
	}
	if len(payload.RelatedSpans) != 1 {
		t.Fatalf("Expected 1 related span, got %d", len(payload.RelatedSpans))
	}
	if payload.RelatedSpans[0].Text != "auf" || payload.RelatedSpans[0].Offset != 17 {
		t.Errorf("Expected related span {auf 17}, got %+v", payload.RelatedSpans[0])
	}
	if payload.IsSimple() {
		t.Error("Expected structured payload, got simple")
	}
}

func TestParsePayload_FencedJSON(t *testing.T) {
	raw := "```json\n{\"translation\": \"the bank\", \"lemma\": \"Bank\"}\n```"

	payload := parsePayload(raw)

	if payload.Translation != "the bank" {
		t.Errorf("Expected translation 'the bank', got %q", payload.Translation)
	}
	if payload.Lemma != "Bank" {
		t.Errorf("Expected lemma 'Bank', got %q", payload.Lemma)
	}
}

func TestParsePayload_MalformedJSON(t *testing.T) {
	payload := parsePayload(`{"translation": "broken`)

	// Degrades to a simple payload holding the raw reply.
	if !payload.IsSimple() {
		t.Error("Expected simple payload for malformed JSON")
	}
	if payload.Translation == "" {
		t.Error("Expected raw text preserved as translation")
	}
}

func TestAnthropicProvider_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var apiReq anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(apiReq.Messages) != 1 || !strings.Contains(apiReq.Messages[0].Content, "flüchtig") {
			t.Errorf("Expected prompt containing the selected text, got %+v", apiReq.Messages)
		}

		resp := anthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{
				{Type: "text", Text: `{"translation": "fleeting", "lemma": "flüchtig"}`},
			},
			Model: "claude-3-5-haiku-20241022",
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	config := Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	}
	provider, err := NewAnthropicProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	payload, err := provider.Translate(context.Background(), Request{
		Text:       "flüchtig",
		Context:    "Der flüchtige Moment verging.",
		SourceLang: "de",
		TargetLang: "en",
		Mode:       "smart",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if payload.Translation != "fleeting" {
		t.Errorf("Expected translation 'fleeting', got %q", payload.Translation)
	}
	if payload.Lemma != "flüchtig" {
		t.Errorf("Expected lemma 'flüchtig', got %q", payload.Lemma)
	}
}

func TestAnthropicProvider_Translate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"type": "error",
			"error": map[string]string{
				"type":    "rate_limit_error",
				"message": "Rate limit exceeded",
			},
		})
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Translate(context.Background(), Request{Text: "hello", TargetLang: "de"})
	if err == nil {
		t.Fatal("Expected error for rate limited request, got nil")
	}
	if !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("Expected error to name rate_limit_error, got: %v", err)
	}
}

func TestAnthropicProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicProvider(Config{})
	if err == nil {
		t.Error("Expected error when API key is missing")
	}
}

func TestOllamaProvider_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var apiReq ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if apiReq.Stream {
			t.Error("Expected stream false")
		}
		if apiReq.Model != "llama3.2" {
			t.Errorf("Expected default model llama3.2, got %s", apiReq.Model)
		}

		resp := ollamaResponse{
			Model:    apiReq.Model,
			Response: "hello",
			Done:     true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	payload, err := provider.Translate(context.Background(), Request{
		Text:       "hallo",
		SourceLang: "de",
		TargetLang: "en",
		Mode:       "simple",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if payload.Translation != "hello" {
		t.Errorf("Expected translation 'hello', got %q", payload.Translation)
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}
}

func TestNewProvider_Selection(t *testing.T) {
	provider, err := NewProvider(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("Failed to create ollama provider: %v", err)
	}
	if provider.Name() != "ollama" {
		t.Errorf("Expected provider name ollama, got %s", provider.Name())
	}

	provider, err = NewProvider(Config{Provider: "claude", APIKey: "k"})
	if err != nil {
		t.Fatalf("Failed to create anthropic provider: %v", err)
	}
	if provider.Name() != "anthropic" {
		t.Errorf("Expected provider name anthropic, got %s", provider.Name())
	}

	provider, err = NewProvider(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error for empty provider, got %v", err)
	}
	if provider != nil {
		t.Error("Expected nil provider when none configured")
	}

	if _, err := NewProvider(Config{Provider: "bogus"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestBuildPrompt_Modes(t *testing.T) {
	simple := buildPrompt(Request{Text: "hallo", SourceLang: "de", TargetLang: "en", Mode: "simple"})
	if strings.Contains(simple, "JSON") {
		t.Error("Simple mode prompt should not ask for JSON")
	}
	if !strings.Contains(simple, "hallo") {
		t.Error("Prompt should contain the text to translate")
	}

	smart := buildPrompt(Request{Text: "aufmachen", Context: "Er macht die Tür auf.", TargetLang: "en", Mode: "smart"})
	if !strings.Contains(smart, "related_spans") {
		t.Error("Smart mode prompt should describe the related_spans field")
	}
	if !strings.Contains(smart, "Er macht die Tür auf.") {
		t.Error("Smart mode prompt should include the context sentence")
	}
}
