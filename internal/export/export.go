// Package export turns stored highlight records into the deduplicated
// list a vocabulary export consumes.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ilyakh/marginalia/internal/model"
)

// Outcome reports how a sink handled an export list.
type Outcome struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Sink consumes an export list record by record.
type Sink interface {
	// Name returns the sink name.
	Name() string

	// Write consumes the list and reports per-record counts. A failed
	// record never aborts the rest of the export.
	Write(records []model.HighlightRecord) (Outcome, error)
}

// BuildList flattens the page lists into one export list: records sharing
// a canonical form collapse to the most recently created one ("laufen"
// saved twice as "läuft" and "laufen" exports once), and the result is
// ordered most recent first.
func BuildList(records []model.HighlightRecord) []model.HighlightRecord {
	byKey := make(map[string]model.HighlightRecord)
	for _, rec := range records {
		key := rec.DedupKey()
		existing, ok := byKey[key]
		if !ok || rec.CreatedAt.After(existing.CreatedAt) {
			byKey[key] = rec
		}
	}

	list := make([]model.HighlightRecord, 0, len(byKey))
	for _, rec := range byKey {
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		// Stable order for records created in the same instant.
		return list[i].DedupKey() < list[j].DedupKey()
	})
	return list
}

// JSONSink writes the export list as a JSON array to a file, or to stdout
// when the path is "-".
type JSONSink struct {
	Path string
}

// Name returns the sink name.
func (s *JSONSink) Name() string {
	return "json"
}

// Write renders the list. Records that cannot be marshaled are counted as
// failed and skipped; everything else is written in list order.
func (s *JSONSink) Write(records []model.HighlightRecord) (Outcome, error) {
	outcome := Outcome{Total: len(records)}

	encoded := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			outcome.Failed++
			continue
		}
		encoded = append(encoded, raw)
		outcome.Passed++
	}

	data, err := json.MarshalIndent(encoded, "", "  ")
	if err != nil {
		return outcome, fmt.Errorf("marshal export list: %w", err)
	}
	data = append(data, '\n')

	if s.Path == "-" || s.Path == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return outcome, fmt.Errorf("write export: %w", err)
		}
		return outcome, nil
	}

	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return outcome, fmt.Errorf("write export file: %w", err)
	}
	return outcome, nil
}
