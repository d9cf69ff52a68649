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
	annotateOccurrence int
	annotateOut        string
	annotateProvider   string
	annotateModel      string
	annotateMode       string
	annotateSource     string
	annotateTarget     string
	annotateTimeout    time.Duration
	noCache            bool
)

// annotateCmd represents the annotate command
var annotateCmd = &cobra.Command{
	Use:   "annotate <url> <text>",
	Short: "Translate a text on a page and draw its marker",
	Long: `Annotate fetches the page, finds the given text, translates it in its
sentence context and draws an inline marker carrying the translation.
The annotation is persisted and restored on later visits.

Example:
  marginalia annotate https://example.de/artikel "flüchtig"
  marginalia annotate https://example.de/artikel "Bank" --occurrence 1
  marginalia annotate https://example.de/artikel "aufmachen" --target en --out page.html`,
	Args: cobra.ExactArgs(2),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().IntVar(&annotateOccurrence, "occurrence", 0, "which occurrence of the text to annotate (0-based)")
	annotateCmd.Flags().StringVar(&annotateOut, "out", "", "write annotated HTML to file (default: stdout)")
	annotateCmd.Flags().StringVar(&annotateProvider, "provider", "", "translation provider (openai, anthropic, ollama)")
	annotateCmd.Flags().StringVar(&annotateModel, "model", "", "provider model name")
	annotateCmd.Flags().StringVar(&annotateMode, "mode", "", "translation mode (simple, smart)")
	annotateCmd.Flags().StringVar(&annotateSource, "source", "", "source language (ISO 639-1 or auto)")
	annotateCmd.Flags().StringVar(&annotateTarget, "target", "", "target language (ISO 639-1)")
	annotateCmd.Flags().DurationVar(&annotateTimeout, "timeout", 2*time.Minute, "overall timeout")
	annotateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable page cache (force fresh fetch)")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	url, text := args[0], args[1]

	ctx, cancel := context.WithTimeout(context.Background(), annotateTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if annotateProvider != "" {
		cfg.Translate.Provider = annotateProvider
	}
	if annotateModel != "" {
		cfg.Translate.Model = annotateModel
	}
	if annotateMode != "" {
		cfg.Translate.Mode = annotateMode
	}
	if annotateSource != "" {
		cfg.Translate.SourceLang = annotateSource
	}
	if annotateTarget != "" {
		cfg.Translate.TargetLang = annotateTarget
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	kv, err := openStorage(cfg)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, kv)

	if verbose {
		fmt.Fprintf(os.Stderr, "Annotating %q on %s\n", text, url)
	}

	result, err := p.Annotate(ctx, url, text, annotateOccurrence)
	if err != nil {
		return fmt.Errorf("annotate failed: %w", err)
	}

	if verbose {
		source := "provider"
		if result.Cached {
			source = "cache"
		}
		fmt.Fprintf(os.Stderr, "✓ Translation (%s): %s\n", source, result.Record.Payload.Translation)
		if result.Record.Lemma != "" {
			fmt.Fprintf(os.Stderr, "✓ Canonical form: %s\n", result.Record.Lemma)
		}
		if result.Record.Context != "" {
			fmt.Fprintf(os.Stderr, "✓ Context: %s\n", result.Record.Context)
		}
		if !result.Marked {
			fmt.Fprintf(os.Stderr, "! Marker could not be drawn; record saved anyway\n")
		}
		if result.Related > 0 {
			fmt.Fprintf(os.Stderr, "✓ Drew %d related marker(s)\n", result.Related)
		}
	}

	return writeOutput(annotateOut, result.HTML)
}

func writeOutput(path, content string) error {
	if path == "" {
		_, err := fmt.Println(content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	}
	return nil
}
