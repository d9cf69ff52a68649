package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilyakh/marginalia/internal/model"
	"github.com/ilyakh/marginalia/internal/notify"
	"github.com/ilyakh/marginalia/internal/store"
)

var removeNotifyAddr string

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove <url> <key>",
	Short: "Remove stored annotations by canonical form",
	Long: `Remove drops every record on the page whose canonical form (lemma, or
the literal text when no lemma is stored) matches the key. With --notify
the removal is broadcast so other open contexts drop their markers too.

Example:
  marginalia remove https://example.de/artikel laufen
  marginalia remove https://example.de/artikel laufen --notify ws://localhost:8787`,
	Args: cobra.ExactArgs(2),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().StringVar(&removeNotifyAddr, "notify", "", "notification hub URL (ws:// or wss://)")
}

func runRemove(cmd *cobra.Command, args []string) error {
	url, key := args[0], args[1]

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if removeNotifyAddr == "" {
		removeNotifyAddr = cfg.Notify.Addr
	}

	kv, err := openStorage(cfg)
	if err != nil {
		return err
	}

	removed, err := store.New(kv).Remove(url, key)
	if err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	fmt.Printf("Removed %d record(s) for %q\n", removed, key)

	if removed > 0 && removeNotifyAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		msg := notify.Removal{Page: model.PageKey(url), Key: key}
		if err := notify.Publish(ctx, removeNotifyAddr, msg); err != nil {
			// Other contexts reconcile on their next restore.
			fmt.Fprintf(os.Stderr, "Warning: could not notify %s: %v\n", removeNotifyAddr, err)
			return nil
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Notified %s\n", removeNotifyAddr)
		}
	}

	return nil
}
