package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/defra"
)

var defraCmd = &cobra.Command{
	Use:   "defra",
	Short: "Manage the DefraDB container",
	Long: `Manage the DefraDB container used by the defra storage driver.

The database runs in a Docker container with data persisted to
~/.folio/data/defra/. Container name, image and port come from the
storage.defra config section.

Examples:
  folio defra start   # Start the DefraDB container
  folio defra stop    # Stop the container (data preserved)
  folio defra status  # Check container status
  folio defra logs    # View container logs`,
}

var defraStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DefraDB container",
	Long: `Start the DefraDB container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getDockerManager(0)
		if err != nil {
			return err
		}
		defer mgr.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Starting DefraDB...")
		if err := mgr.Start(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start DefraDB: %w", err)
		}
		fmt.Fprintf(out, "DefraDB is running at %s\n", mgr.URL())
		return nil
	},
}

var defraStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the DefraDB container",
	Long: `Stop the DefraDB container.

This stops the container but preserves data. Use 'folio defra start'
to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getDockerManager(0)
		if err != nil {
			return err
		}
		defer mgr.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Stopping DefraDB...")
		if err := mgr.Stop(cmd.Context()); err != nil {
			return fmt.Errorf("failed to stop DefraDB: %w", err)
		}
		fmt.Fprintln(out, "DefraDB stopped")
		return nil
	},
}

var defraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show DefraDB container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := getDockerManager(0)
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		out := cmd.OutOrStdout()
		switch status {
		case defra.StatusRunning:
			fmt.Fprintf(out, "Status: %s\n", status)
			fmt.Fprintf(out, "URL: %s\n", mgr.URL())
			if err := defra.NewClient(mgr.URL()).HealthCheck(ctx); err != nil {
				fmt.Fprintf(out, "Health: unhealthy (%v)\n", err)
			} else {
				fmt.Fprintln(out, "Health: healthy")
			}
		case defra.StatusStopped:
			fmt.Fprintf(out, "Status: %s (use 'folio defra start' to start)\n", status)
		case defra.StatusNotFound:
			fmt.Fprintf(out, "Status: %s (use 'folio defra start' to create)\n", status)
		default:
			fmt.Fprintf(out, "Status: %s\n", status)
		}
		return nil
	},
}

var logsTail string

var defraLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show DefraDB container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getDockerManager(0)
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(cmd.Context(), logsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), logs)
		return nil
	},
}

var defraRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the DefraDB container",
	Long: `Remove the DefraDB container.

This stops and removes the container. Data in ~/.folio/data/defra/
is NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getDockerManager(0)
		if err != nil {
			return err
		}
		defer mgr.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Removing DefraDB container...")
		if err := mgr.Remove(cmd.Context()); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}
		fmt.Fprintln(out, "DefraDB container removed (data preserved)")
		return nil
	},
}

var defraWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for DefraDB to be ready",
	Long: `Wait for DefraDB to be ready to accept connections.

This is useful in scripts to ensure DefraDB is fully started
before running other commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		mgr, err := getDockerManager(timeout)
		if err != nil {
			return err
		}
		defer mgr.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Waiting for DefraDB (timeout: %s)...\n", timeout)
		if err := mgr.WaitReady(cmd.Context()); err != nil {
			return fmt.Errorf("DefraDB not ready: %w", err)
		}
		fmt.Fprintln(out, "DefraDB is ready")
		return nil
	},
}

func init() {
	defraCmd.AddCommand(defraStartCmd)
	defraCmd.AddCommand(defraStopCmd)
	defraCmd.AddCommand(defraStatusCmd)
	defraCmd.AddCommand(defraLogsCmd)
	defraCmd.AddCommand(defraRemoveCmd)
	defraCmd.AddCommand(defraWaitCmd)

	defraLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	defraWaitCmd.Flags().Duration("timeout", 30*time.Second, "Timeout waiting for DefraDB")

	rootCmd.AddCommand(defraCmd)
}

// getDockerManager creates a DockerManager from the storage.defra config.
func getDockerManager(readyTimeout time.Duration) (*defra.DockerManager, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	cfgMgr, err := loadConfig(h)
	if err != nil {
		return nil, err
	}
	dc := cfgMgr.Get().Storage.Defra

	if err := os.MkdirAll(h.DefraDataPath(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return defra.NewDockerManager(defra.DockerConfig{
		ContainerName: dc.ContainerName,
		Image:         dc.Image,
		DataPath:      h.DefraDataPath(),
		HostPort:      dc.Port,
		ReadyTimeout:  readyTimeout,
	})
}
