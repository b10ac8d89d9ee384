package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/server"
)

var (
	serveHost   string
	servePort   string
	swaggerSpec string
	watchConfig bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Folio server",
	Long: `Start the Folio HTTP server.

Pages are stored in SQLite under the home directory by default. With
storage.driver set to defra the server also manages a DefraDB container,
starting it with the server and stopping it on shutdown.

The server provides:
  - /health  - Basic server health check
  - /ready   - Readiness check (includes a store ping)
  - /status  - Driver, version and page counts
  - /swagger - API documentation

Examples:
  folio serve                    # Start on the configured port (8080)
  folio serve --port 3000        # Start on custom port
  folio serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		cfgMgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		settings := *cfgMgr.Get()
		if cmd.Flags().Changed("host") {
			settings.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			settings.Server.Port = servePort
		}

		logger, level, err := newLogger(settings.Log)
		if err != nil {
			return err
		}
		cfgMgr.SetLogger(logger.With("component", "config"))
		if watchConfig && cfgMgr.ConfigFile() != "" {
			cfgMgr.WatchConfig()
			logger.Info("watching config file", "file", cfgMgr.ConfigFile())
		}

		srv, err := server.New(server.Config{
			ConfigManager:   cfgMgr,
			Settings:        &settings,
			Home:            h,
			Logger:          logger,
			LogLevel:        level,
			SwaggerSpecPath: swaggerSpec,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	serveCmd.Flags().StringVar(&swaggerSpec, "swagger-spec", "", "Serve swagger.json from this file")
	serveCmd.Flags().BoolVar(&watchConfig, "watch-config", true, "Reload the config file when it changes")

	rootCmd.AddCommand(serveCmd)
}
