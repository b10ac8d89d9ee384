package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds endpoints to the registry.
func (r *Registry) Register(eps ...Endpoint) {
	r.endpoints = append(r.endpoints, eps...)
}

// RegisterRoutes registers all endpoint routes with mux. initMiddleware
// wraps handlers that require the store.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns the "api" command with one subcommand per
// endpoint.
func (r *Registry) BuildCommands(newClient func() *Client) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call a running folio server over HTTP.

Use --server to pick the server and --token or --user to authenticate writes.

Examples:
  folio api health
  folio api pages list --published
  folio api pages get getting-started
  folio api search "install guide"`,
	}

	groups := map[string]*cobra.Command{}
	for _, ep := range r.endpoints {
		cmd := ep.Command(newClient)
		if cmd == nil {
			continue
		}
		group := cmd.Annotations[GroupAnnotation]
		if group == "" {
			apiCmd.AddCommand(cmd)
			continue
		}
		parent, ok := groups[group]
		if !ok {
			parent = &cobra.Command{Use: group, Short: "Commands for " + group}
			groups[group] = parent
			apiCmd.AddCommand(parent)
		}
		parent.AddCommand(cmd)
	}
	return apiCmd
}

// GroupAnnotation on a command nests it under "api <group>".
const GroupAnnotation = "folio.group"

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
