package endpoints

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/search"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// SearchResponse is the response for GET /api/search.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
	Count   int             `json:"count"`
}

// SearchEndpoint handles GET /api/search.
type SearchEndpoint struct{}

var _ api.Endpoint = (*SearchEndpoint)(nil)

func (e *SearchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/search", e.handler
}

func (e *SearchEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Search pages
//	@Description	Search published pages by title, tags and content. Queries shorter than two characters return no results.
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/search [get]
func (e *SearchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	engine := svcctx.SearchFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "search not initialized")
		return
	}
	q := r.URL.Query().Get("q")
	results := engine.Search(r.Context(), q)
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results, Count: len(results)})
}

func (e *SearchEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search published pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp SearchResponse
			path := "/api/search?" + url.Values{"q": {args[0]}}.Encode()
			if err := newClient().Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
