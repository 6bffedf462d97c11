package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/giftjourney/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Gift Journey MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes journey building,
checkout and payment confirmation as MCP tools via STDIO.

The --db flag is optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\giftjourney\giftjourney.db
- macOS: ~/Library/Application Support/giftjourney/giftjourney.db
- Linux: ~/.local/share/giftjourney/giftjourney.db

Example:
  giftjourney mcp
  giftjourney mcp --api-url https://gifts.example.com/api --db journeys.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := mcp.NewGiftJourneyMCPServer(mcp.Options{
			DBPath:       cfg.DB.Path,
			WAL:          cfg.DB.WAL,
			Sync:         cfg.DB.Sync,
			Client:       newClient(),
			ShareBase:    cfg.Share.BaseURL,
			CheckoutURL:  cfg.Payment.CheckoutURL,
			PollInterval: cfg.Payment.PollInterval,
			PollTimeout:  cfg.Payment.PollTimeout,
		})
		if err != nil {
			return err
		}
		defer srv.Close()

		srv.RegisterTools()

		// Log to stderr so we don't contaminate the JSON-RPC stream on stdout.
		fmt.Fprintf(os.Stderr, "Gift Journey MCP server started. API: %s DB: %s (WAL: %t, Sync: %s)\n", cfg.API.BaseURL, srv.DbPath, cfg.DB.WAL, cfg.DB.Sync)
		fmt.Fprintln(os.Stderr, "Available tools: ping, create_journey, get_journey, list_saved_journeys, add_stop, update_stop, create_checkout_session, check_payment_status, await_payment, get_share_link, list_public_journeys")
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return srv.Start()
	},
}
