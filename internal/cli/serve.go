package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/ilyakh/marginalia/internal/notify"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the removal notification hub",
	Long: `Serve runs the websocket hub that relays removal notifications between
contexts: a remove published to the hub reaches every connected
listener, which drops the matching markers.

Example:
  marginalia serve --addr :8787`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	hub := notify.NewHub(verbose)
	go hub.Run()

	fmt.Fprintf(os.Stderr, "Notification hub listening on %s\n", serveAddr)

	if err := http.ListenAndServe(serveAddr, hub); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
