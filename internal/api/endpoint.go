package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint defines both an HTTP route and its corresponding CLI command.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresInit returns true if the handler needs the page store to be
	// open. Such routes answer 503 until it is.
	RequiresInit() bool

	// Command returns a Cobra command that calls this endpoint via HTTP.
	// newClient is called when the command runs, after flags are parsed.
	Command(newClient func() *Client) *cobra.Command
}
