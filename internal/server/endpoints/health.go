package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/defra"
	"github.com/jackzampolin/folio/internal/page"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/version"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Liveness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp HealthResponse
			if err := newClient().Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Readiness check
//	@Description	OK only when the page store answers a ping
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Store: "ok"}

	svc := svcctx.PagesFrom(r.Context())
	if svc == nil {
		resp.Status = "degraded"
		resp.Store = "not_initialized"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	if err := svc.Store().Ping(r.Context()); err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("store ping failed", "error", err)
		resp.Status = "degraded"
		resp.Store = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes the page store)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp HealthResponse
			if err := newClient().Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", resp.Status)
			if resp.Store != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Store:  %s\n", resp.Store)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server  string       `json:"server"`
	Version string       `json:"version"`
	Store   StoreStatus  `json:"store"`
	Pages   *page.Counts `json:"pages,omitempty"`
	Defra   *DefraStatus `json:"defra,omitempty"`
}

// StoreStatus shows the page store driver and health.
type StoreStatus struct {
	Driver string `json:"driver"`
	Health string `json:"health"`
}

// DefraStatus shows DefraDB container status.
type DefraStatus struct {
	Container string `json:"container"`
	URL       string `json:"url"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// DefraManager is set by server when the defra driver is used.
	DefraManager *defra.DockerManager
}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Server status
//	@Description	Store driver, store health and page counts
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{
		Server:  "running",
		Version: version.GitRelease,
		Store:   StoreStatus{Driver: svcctx.DriverFrom(ctx), Health: "not_initialized"},
	}

	if svc := svcctx.PagesFrom(ctx); svc != nil {
		resp.Store.Health = "healthy"
		if err := svc.Store().Ping(ctx); err != nil {
			resp.Store.Health = "unhealthy"
		} else if counts, err := svc.Counts(ctx); err == nil {
			resp.Pages = &counts
		}
	}

	if e.DefraManager != nil {
		resp.Defra = &DefraStatus{URL: e.DefraManager.URL()}
		status, err := e.DefraManager.Status(ctx)
		if err != nil {
			resp.Defra.Container = "error"
		} else {
			resp.Defra.Container = string(status)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp StatusResponse
			if err := newClient().Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:  %s (%s)\n", resp.Server, resp.Version)
			fmt.Fprintf(out, "Store:   %s (%s)\n", resp.Store.Driver, resp.Store.Health)
			if resp.Pages != nil {
				fmt.Fprintf(out, "Pages:   %d total, %d published, %d deleted\n",
					resp.Pages.Total, resp.Pages.Published, resp.Pages.Deleted)
			}
			if resp.Defra != nil {
				fmt.Fprintf(out, "Defra:\n")
				fmt.Fprintf(out, "  Container: %s\n", resp.Defra.Container)
				fmt.Fprintf(out, "  URL:       %s\n", resp.Defra.URL)
			}
			return nil
		},
	}
}
