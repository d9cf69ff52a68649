package translate

import (
	"encoding/json"
	"strings"

	"github.com/ilyakh/marginalia/internal/model"
)

// parsePayload turns a provider reply into a payload. Smart-mode replies
// are JSON (possibly fenced in a code block); anything that does not parse
// degrades to a simple payload holding the raw text, so a sloppy model
// reply still delivers a translation.
func parsePayload(raw string) *model.TranslationPayload {
	trimmed := strings.TrimSpace(raw)
	candidate := stripFence(trimmed)

	if strings.HasPrefix(candidate, "{") {
		var payload model.TranslationPayload
		if err := json.Unmarshal([]byte(candidate), &payload); err == nil && payload.Translation != "" {
			payload.Translation = strings.TrimSpace(payload.Translation)
			return &payload
		}
	}

	p := model.SimplePayload(trimmed)
	return &p
}

// stripFence removes a surrounding markdown code fence, if any.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
