package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/auth"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	serverURL    string
	apiToken     string
	apiUser      string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "A small documentation wiki with a block editor backend",
	Long: `Folio stores documentation pages as structured block documents and
serves them over an HTTP API.

It provides:
  - Pages with slugs, tags, publish state and soft delete
  - Ranked and fuzzy search with highlighted snippets
  - Markdown and HTML import and export with a table of contents
  - Image uploads, autosaving edits and an MCP tool server`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.folio/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "folio home directory (default: ~/.folio)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "folio server URL",
	)
	rootCmd.PersistentFlags().StringVar(
		&apiToken, "token", "", "bearer token for writes (default: $FOLIO_TOKEN)",
	)
	rootCmd.PersistentFlags().StringVar(
		&apiUser, "user", "", "user id sent in the trusted user header",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// newClient builds an API client from the global flags. It runs after flag
// parsing, so endpoint commands see the final values.
func newClient() *api.Client {
	var opts []api.Option
	token := apiToken
	if token == "" {
		token = os.Getenv("FOLIO_TOKEN")
	}
	if token != "" {
		opts = append(opts, api.WithToken(token))
	}
	if apiUser != "" {
		opts = append(opts, api.WithUser(auth.DefaultUserHeader, apiUser))
	}
	return api.NewClient(strings.TrimRight(serverURL, "/"), opts...)
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// loadConfig loads --config, or the home directory's config.yaml when it
// exists, or the default search path.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" && h != nil && h.ConfigExists() {
		path = h.ConfigPath()
	}
	return config.NewManager(path)
}

// newLogger builds the process logger. The level is a LevelVar so config
// reloads can change it.
func newLogger(c config.LogConfig) (*slog.Logger, *slog.LevelVar, error) {
	lvl, err := c.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	level := new(slog.LevelVar)
	level.Set(lvl)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), level, nil
}
