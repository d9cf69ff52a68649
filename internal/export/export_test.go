package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ilyakh/marginalia/internal/model"
)

func rec(text, lemma string, at time.Time) model.HighlightRecord {
	return model.HighlightRecord{
		ID:        text + "-" + at.Format(time.RFC3339),
		PageURL:   "https://example.com/articles/blumen",
		Text:      text,
		Lemma:     lemma,
		Payload:   model.TranslationPayload{Translation: "to run", Lemma: lemma},
		CreatedAt: at,
	}
}

func TestBuildList_CollapsesCanonicalForms(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []model.HighlightRecord{
		rec("laufen", "laufen", base),
		rec("läuft", "laufen", base.Add(time.Hour)),
		rec("Blume", "Blume", base.Add(30*time.Minute)),
	}

	list := BuildList(records)

	if len(list) != 2 {
		t.Fatalf("Expected 2 entries after collapsing shared lemma, got %d", len(list))
	}
	if list[0].Text != "läuft" {
		t.Errorf("Expected most recent record of the lemma to survive, got %q", list[0].Text)
	}
	if list[1].Text != "Blume" {
		t.Errorf("Expected 'Blume' second, got %q", list[1].Text)
	}
}

func TestBuildList_MostRecentFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []model.HighlightRecord{
		rec("alpha", "alpha", base),
		rec("gamma", "gamma", base.Add(2*time.Hour)),
		rec("beta", "beta", base.Add(time.Hour)),
	}

	list := BuildList(records)

	got := []string{list[0].Text, list[1].Text, list[2].Text}
	want := []string{"gamma", "beta", "alpha"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected order %v, got %v", want, got)
			break
		}
	}
}

func TestBuildList_TextFallbackWhenNoLemma(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []model.HighlightRecord{
		rec("ephemeral", "", base),
		rec("ephemeral", "", base.Add(time.Minute)),
		rec("bloom", "", base),
	}

	list := BuildList(records)

	if len(list) != 2 {
		t.Fatalf("Expected literal text to key dedup without a lemma, got %d entries", len(list))
	}
}

func TestJSONSink_WritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.json")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []model.HighlightRecord{
		rec("laufen", "laufen", base),
		rec("Blume", "Blume", base.Add(time.Minute)),
	}

	sink := &JSONSink{Path: path}
	outcome, err := sink.Write(records)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if outcome.Total != 2 || outcome.Passed != 2 || outcome.Failed != 0 {
		t.Errorf("Expected outcome {2 2 0}, got %+v", outcome)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export file: %v", err)
	}

	var decoded []model.HighlightRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Export file is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 records in file, got %d", len(decoded))
	}
	if decoded[0].Text != "laufen" {
		t.Errorf("Expected first record 'laufen', got %q", decoded[0].Text)
	}
}
