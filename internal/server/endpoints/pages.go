package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/importer"
	"github.com/jackzampolin/folio/internal/page"
)

const pagesGroup = "pages"

// GetPageEndpoint handles GET /api/pages/{slug}.
type GetPageEndpoint struct{}

var _ api.Endpoint = (*GetPageEndpoint)(nil)

func (e *GetPageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pages/{slug}", e.handler
}

func (e *GetPageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get page
//	@Description	Get a page by slug. Deleted pages are not found.
//	@Tags			pages
//	@Produce		json
//	@Param			slug	path		string	true	"Page slug"
//	@Success		200		{object}	page.Page
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/pages/{slug} [get]
func (e *GetPageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	p, err := svc.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *GetPageEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return grouped(&cobra.Command{
		Use:   "get <slug>",
		Short: "Get a page by slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p page.Page
			if err := newClient().Get(cmd.Context(), pagePath(args[0]), &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}, pagesGroup)
}

// CreatePageEndpoint handles POST /api/pages.
type CreatePageEndpoint struct{}

var _ api.Endpoint = (*CreatePageEndpoint)(nil)

func (e *CreatePageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pages", e.handler
}

func (e *CreatePageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create page
//	@Description	Create a draft page. The slug is derived from the title.
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			request	body		page.CreateInput	true	"New page"
//	@Success		201		{object}	page.Page
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/pages [post]
func (e *CreatePageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	user, err := authorize(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in page.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if user != "" {
		in.AuthorID = user
	}
	p, err := svc.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (e *CreatePageEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	var in page.CreateInput
	var file string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			if file != "" {
				res, err := importFile(file)
				if err != nil {
					return err
				}
				in.Content = res.Content
			}
			var p page.Page
			if err := newClient().Post(cmd.Context(), "/api/pages", in, &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}
	cmd.Flags().StringSliceVar(&in.Tags, "tags", nil, "Page tags")
	cmd.Flags().BoolVar(&in.Published, "published", false, "Publish immediately")
	cmd.Flags().StringVar(&in.Image, "image", "", "Cover image URL")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Markdown or HTML file to use as content")
	return grouped(cmd, pagesGroup)
}

// UpdatePageEndpoint handles PUT /api/pages/{slug}.
type UpdatePageEndpoint struct{}

var _ api.Endpoint = (*UpdatePageEndpoint)(nil)

func (e *UpdatePageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/pages/{slug}", e.handler
}

func (e *UpdatePageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update page
//	@Description	Partially update a page. Omitted fields are unchanged; a new title regenerates the slug.
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string		true	"Page slug"
//	@Param			request	body		page.Patch	true	"Fields to change"
//	@Success		200		{object}	page.Page
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/pages/{slug} [put]
func (e *UpdatePageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	if _, err := authorize(r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	var patch page.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := svc.UpdateBySlug(r.Context(), r.PathValue("slug"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *UpdatePageEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	var title, image, file string
	var tags []string
	cmd := &cobra.Command{
		Use:   "update <slug>",
		Short: "Update a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch page.Patch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("image") {
				patch.Image = &image
			}
			if cmd.Flags().Changed("tags") {
				patch.Tags = &tags
			}
			if file != "" {
				res, err := importFile(file)
				if err != nil {
					return err
				}
				patch.Content = res.Content
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update: pass --title, --tags, --image or --file")
			}
			var p page.Page
			if err := newClient().Put(cmd.Context(), pagePath(args[0]), patch, &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Replace tags")
	cmd.Flags().StringVar(&image, "image", "", "Cover image URL")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Markdown or HTML file to use as content")
	return grouped(cmd, pagesGroup)
}

// DeletePageEndpoint handles DELETE /api/pages/{slug}.
type DeletePageEndpoint struct{}

var _ api.Endpoint = (*DeletePageEndpoint)(nil)

func (e *DeletePageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/pages/{slug}", e.handler
}

func (e *DeletePageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete page
//	@Description	Soft delete a page. It can be restored later.
//	@Tags			pages
//	@Param			slug	path	string	true	"Page slug"
//	@Success		204
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/pages/{slug} [delete]
func (e *DeletePageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	if _, err := authorize(r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := svc.DeleteBySlug(r.Context(), r.PathValue("slug")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeletePageEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return grouped(&cobra.Command{
		Use:   "delete <slug>",
		Short: "Soft delete a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().Delete(cmd.Context(), pagePath(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}, pagesGroup)
}

// RestorePageEndpoint handles PATCH /api/pages/{slug}/restore.
type RestorePageEndpoint struct{}

var _ api.Endpoint = (*RestorePageEndpoint)(nil)

func (e *RestorePageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/pages/{slug}/restore", e.handler
}

func (e *RestorePageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Restore page
//	@Description	Clear the deleted flag. The published flag is kept.
//	@Tags			pages
//	@Produce		json
//	@Param			slug	path		string	true	"Page slug"
//	@Success		200		{object}	page.Page
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/pages/{slug}/restore [patch]
func (e *RestorePageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	if _, err := authorize(r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := svc.Restore(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *RestorePageEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return grouped(&cobra.Command{
		Use:   "restore <slug>",
		Short: "Restore a deleted page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p page.Page
			if err := newClient().Patch(cmd.Context(), pagePath(args[0], "restore"), nil, &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}, pagesGroup)
}

// PublishRequest is the body of PATCH /api/pages/{slug}/published.
type PublishRequest struct {
	Published bool `json:"published"`
}

// PublishPageEndpoint handles PATCH /api/pages/{slug}/published.
type PublishPageEndpoint struct{}

var _ api.Endpoint = (*PublishPageEndpoint)(nil)

func (e *PublishPageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/pages/{slug}/published", e.handler
}

func (e *PublishPageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Publish or unpublish page
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string			true	"Page slug"
//	@Param			request	body		PublishRequest	true	"Publish state"
//	@Success		200		{object}	page.Page
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/pages/{slug}/published [patch]
func (e *PublishPageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	if _, err := authorize(r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	published, err := parseBool(body["published"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := svc.SetPublished(r.Context(), r.PathValue("slug"), published)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// parseBool accepts only a JSON boolean.
func parseBool(raw json.RawMessage) (bool, error) {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "":
		return false, page.Invalid("published", "is required")
	}
	return false, page.Invalid("published", "must be a boolean")
}

func (e *PublishPageEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	var unpublish bool
	cmd := &cobra.Command{
		Use:   "publish <slug>",
		Short: "Publish a page (or unpublish with --off)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p page.Page
			body := PublishRequest{Published: !unpublish}
			if err := newClient().Patch(cmd.Context(), pagePath(args[0], "published"), body, &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}
	cmd.Flags().BoolVar(&unpublish, "off", false, "Unpublish instead")
	return grouped(cmd, pagesGroup)
}

// ListPagesResponse is the response for listing pages.
type ListPagesResponse struct {
	Pages []*page.Page `json:"pages"`
	Count int          `json:"count"`
}

// ListPagesEndpoint handles GET /api/pages.
type ListPagesEndpoint struct{}

var _ api.Endpoint = (*ListPagesEndpoint)(nil)

func (e *ListPagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pages", e.handler
}

func (e *ListPagesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List pages
//	@Description	List pages, newest first. Deleted pages are listed only for editors.
//	@Tags			pages
//	@Produce		json
//	@Param			published		query		bool	false	"Filter by publish state"
//	@Param			limit			query		int		false	"Maximum number of pages"
//	@Param			include_deleted	query		bool	false	"Include soft-deleted pages"
//	@Success		200				{object}	ListPagesResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/api/pages [get]
func (e *ListPagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}

	var opts page.ListOptions
	var err error
	if opts.Published, err = boolParam(r, "published"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeServiceError(w, r, page.Invalid("limit", "must be a non-negative integer"))
			return
		}
		opts.Limit = n
	}
	includeDeleted, err := boolParam(r, "include_deleted")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if includeDeleted != nil && *includeDeleted {
		if _, err := authorize(r); err != nil {
			writeServiceError(w, r, err)
			return
		}
		opts.IncludeDeleted = true
	}

	pages, err := svc.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if pages == nil {
		pages = []*page.Page{}
	}
	writeJSON(w, http.StatusOK, ListPagesResponse{Pages: pages, Count: len(pages)})
}

func (e *ListPagesEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	var published, deleted bool
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if cmd.Flags().Changed("published") {
				q.Set("published", strconv.FormatBool(published))
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if deleted {
				q.Set("include_deleted", "true")
			}
			path := "/api/pages"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			var resp ListPagesResponse
			if err := newClient().Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&published, "published", false, "Only published (or with =false, only drafts)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of pages")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Include deleted pages")
	return grouped(cmd, pagesGroup)
}

// importFile reads a local markdown or HTML file into a document.
func importFile(path string) (*importer.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return importer.FromHTML(bytes.NewReader(data), path)
	default:
		return importer.FromMarkdown(data, path)
	}
}
