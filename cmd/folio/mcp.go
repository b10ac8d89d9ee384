package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/mcp"
	"github.com/jackzampolin/folio/internal/search"
)

var (
	mcpHTTPAddr string
	mcpEndpoint string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve folio tools over the Model Context Protocol",
	Long: `Serve folio as MCP tools backed by a running folio server.

Tools:
  search_pages   Ranked search with highlights (server-side)
  fuzzy_search   Typo-tolerant search over published pages
  get_page       Page markdown with its table of contents
  list_pages     List pages

Runs over stdio by default. With --http it serves the streamable HTTP
transport instead.

Examples:
  folio mcp --server http://localhost:8080
  folio mcp --http :8090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr, err := loadConfig(nil)
		if err != nil {
			return err
		}
		settings := cfgMgr.Get()

		// stdout carries the protocol; logs go to stderr.
		logger, _, err := newLogger(settings.Log)
		if err != nil {
			return err
		}
		if mcpHTTPAddr == "" {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		}

		s := mcp.NewServer(mcp.Config{
			Client: newClient(),
			Fuzzy: search.FuzzyOptions{
				Threshold:      settings.Search.FuzzyThreshold,
				MinMatchLength: settings.Search.MinMatchLength,
				SnippetRadius:  settings.Search.SnippetRadius,
			},
			Logger: logger.With("component", "mcp"),
		})

		if mcpHTTPAddr == "" {
			return s.ServeStdio()
		}

		httpServer := s.HTTPServer(mcpEndpoint)
		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting MCP server", "addr", mcpHTTPAddr, "endpoint", mcpEndpoint, "folio", serverURL)
			errCh <- httpServer.Start(mcpHTTPAddr)
		}()

		select {
		case <-cmd.Context().Done():
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(ctx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve the streamable HTTP transport on this address (e.g. ':8090')")
	mcpCmd.Flags().StringVar(&mcpEndpoint, "endpoint", mcp.DefaultEndpoint, "HTTP endpoint path")

	rootCmd.AddCommand(mcpCmd)
}
