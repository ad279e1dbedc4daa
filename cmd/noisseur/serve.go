package main

import (
	"github.com/spf13/cobra"

	"github.com/connoisseur/noisseur/internal/httpapi"
	"github.com/connoisseur/noisseur/internal/server"
)

var serveAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve screen recognition over MCP (stdio)",
	Long: `Serve screen recognition as an MCP server over stdin/stdout.

Configure it in your MCP client (e.g., Claude Desktop). Logs are written to
stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		rec, err := newRecognizer(cfg, store)
		if err != nil {
			return err
		}
		watch(cmd, store)

		logger.Info("mcp server starting", "version", Version, "templates", store.Registry().Len())
		return server.New(rec, store, Version, logger).Run(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve screen recognition over HTTP",
	Long: `Start the HTTP API.

Routes:
  POST /api/1/get_screen_data    recognize the multipart file "screen"
  GET  /api/1/ping               liveness and template count
  GET  /api/1/templates          loaded templates in match order
  POST /api/1/templates/reload   reload templates from disk

Examples:
  noisseur serve                   # listen on http.addr (default :8080)
  noisseur serve --addr :9090      # listen on a custom port
  curl -F screen=@shot.png localhost:8080/api/1/get_screen_data`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		rec, err := newRecognizer(cfg, store)
		if err != nil {
			return err
		}
		watch(cmd, store)

		addr := cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		return httpapi.New(rec, store, Version, logger).ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (default: http.addr)")

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
}
