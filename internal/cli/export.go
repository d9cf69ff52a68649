package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ilyakh/marginalia/internal/export"
	"github.com/ilyakh/marginalia/internal/model"
	"github.com/ilyakh/marginalia/internal/store"
)

var (
	exportOut string
	exportURL string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved vocabulary as JSON",
	Long: `Export writes the saved vocabulary as a JSON list. Records sharing a
canonical form collapse to the most recent one, ordered most recent
first. By default every page is exported; --url restricts to one page.

Example:
  marginalia export --out vocabulary.json
  marginalia export --url https://example.de/artikel`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOut, "out", "-", "output file (- for stdout)")
	exportCmd.Flags().StringVar(&exportURL, "url", "", "export only this page's records")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	kv, err := openStorage(cfg)
	if err != nil {
		return err
	}
	st := store.New(kv)

	var records []model.HighlightRecord
	if exportURL != "" {
		records, err = st.List(exportURL)
	} else {
		records, err = st.AllRecords()
	}
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	list := export.BuildList(records)

	sink := &export.JSONSink{Path: exportOut}
	outcome, err := sink.Write(list)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d/%d record(s)", outcome.Passed, outcome.Total)
	if outcome.Failed > 0 {
		fmt.Fprintf(os.Stderr, " (%d failed)", outcome.Failed)
	}
	fmt.Fprintln(os.Stderr)

	return nil
}
