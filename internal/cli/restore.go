package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilyakh/marginalia/internal/pipeline"
)

var (
	restoreOut     string
	restoreTimeout time.Duration
)

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore <url>",
	Short: "Redraw every stored annotation on a page",
	Long: `Restore fetches the page and redraws the markers of all records stored
for it. Records whose text or context no longer appears on the page are
skipped silently.

Example:
  marginalia restore https://example.de/artikel
  marginalia restore https://example.de/artikel --out page.html`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&restoreOut, "out", "", "write restored HTML to file (default: stdout)")
	restoreCmd.Flags().DurationVar(&restoreTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runRestore(cmd *cobra.Command, args []string) error {
	url := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	kv, err := openStorage(cfg)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, kv)

	result, err := p.Restore(ctx, url)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Restored %d annotation(s), skipped %d\n", result.Restored, result.Skipped)
	}

	return writeOutput(restoreOut, result.HTML)
}
