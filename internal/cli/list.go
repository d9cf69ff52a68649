package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ilyakh/marginalia/internal/export"
	"github.com/ilyakh/marginalia/internal/model"
	"github.com/ilyakh/marginalia/internal/store"
)

var listAll bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [url]",
	Short: "List stored annotations",
	Long: `List shows the annotations stored for a page, collapsed by canonical
form with the most recent first. Without a URL it lists the pages that
have annotations; with --all it lists every record across pages.

Example:
  marginalia list
  marginalia list https://example.de/artikel
  marginalia list --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listAll, "all", false, "list records from every page")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	kv, err := openStorage(cfg)
	if err != nil {
		return err
	}
	st := store.New(kv)

	if len(args) == 0 && !listAll {
		pages, err := st.Pages()
		if err != nil {
			return fmt.Errorf("list pages: %w", err)
		}
		if len(pages) == 0 {
			fmt.Println("No annotations stored.")
			return nil
		}
		for _, page := range pages {
			fmt.Println(page)
		}
		return nil
	}

	var records []model.HighlightRecord
	if listAll {
		records, err = st.AllRecords()
	} else {
		records, err = st.List(args[0])
	}
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	list := export.BuildList(records)
	if len(list) == 0 {
		fmt.Println("No annotations stored.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TEXT\tCANONICAL\tTRANSLATION\tSAVED")
	for _, rec := range list {
		lemma := rec.Lemma
		if lemma == "" {
			lemma = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			rec.Text, lemma, rec.Payload.Translation, rec.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
