package endpoints

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/importer"
	"github.com/jackzampolin/folio/internal/page"
	"github.com/jackzampolin/folio/internal/render"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/toc"
)

// PageTOCEndpoint handles GET /api/pages/{slug}/toc.
type PageTOCEndpoint struct{}

var _ api.Endpoint = (*PageTOCEndpoint)(nil)

func (e *PageTOCEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pages/{slug}/toc", e.handler
}

func (e *PageTOCEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Page table of contents
//	@Description	Headings of a page in document order. Any failure yields an empty list.
//	@Tags			pages
//	@Produce		json
//	@Param			slug	path	string	true	"Page slug"
//	@Success		200		{array}	toc.Item
//	@Router			/api/pages/{slug}/toc [get]
func (e *PageTOCEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	items := []toc.Item{}
	if svc := svcctx.PagesFrom(r.Context()); svc != nil {
		p, err := svc.Get(r.Context(), r.PathValue("slug"))
		if err != nil {
			if !errors.Is(err, page.ErrNotFound) {
				svcctx.LoggerFrom(r.Context()).Warn("toc unavailable", "slug", r.PathValue("slug"), "error", err)
			}
		} else if got := toc.FromContent(p.Content); got != nil {
			items = got
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (e *PageTOCEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return grouped(&cobra.Command{
		Use:   "toc <slug>",
		Short: "Show a page's table of contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []toc.Item
			if err := newClient().Get(cmd.Context(), pagePath(args[0], "toc"), &items); err != nil {
				return err
			}
			return api.Output(items)
		},
	}, pagesGroup)
}

// Export formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// exportCSP forbids scripts in exported HTML. Inline styles carry mark colors.
const exportCSP = "default-src 'none'; img-src * data:; style-src 'unsafe-inline'; base-uri 'none'; form-action 'none'"

// ExportPageEndpoint handles GET /api/pages/{slug}/export.
type ExportPageEndpoint struct{}

var _ api.Endpoint = (*ExportPageEndpoint)(nil)

func (e *ExportPageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pages/{slug}/export", e.handler
}

func (e *ExportPageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export page
//	@Description	Render a page as markdown or HTML
//	@Tags			pages
//	@Produce		text/markdown
//	@Produce		text/html
//	@Param			slug	path		string	true	"Page slug"
//	@Param			format	query		string	false	"markdown (default) or html"
//	@Success		200		{string}	string
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/pages/{slug}/export [get]
func (e *ExportPageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatMarkdown
	}
	if format != FormatMarkdown && format != FormatHTML {
		writeServiceError(w, r, page.Invalid("format", "must be markdown or html"))
		return
	}

	p, err := svc.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var out, contentType, ext string
	if format == FormatHTML {
		out, err = render.HTML(p.Content)
		contentType, ext = "text/html; charset=utf-8", ".html"
	} else {
		out, err = render.Markdown(p.Content)
		contentType, ext = "text/markdown; charset=utf-8", ".md"
	}
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("render %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if format == FormatHTML {
		w.Header().Set("Content-Security-Policy", exportCSP)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": p.Slug + ext}))
	io.WriteString(w, out)
}

func (e *ExportPageEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	var format, outFile string
	cmd := &cobra.Command{
		Use:   "export <slug>",
		Short: "Export a page as markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pagePath(args[0], "export") + "?" + url.Values{"format": {format}}.Encode()
			data, err := newClient().GetRaw(cmd.Context(), path)
			if err != nil {
				return err
			}
			return api.OutputRaw(data, outFile)
		},
	}
	cmd.Flags().StringVar(&format, "format", FormatMarkdown, "Export format: markdown or html")
	cmd.Flags().StringVar(&outFile, "out", "", "Write to file instead of stdout")
	return grouped(cmd, pagesGroup)
}

// ImportPageEndpoint handles POST /api/pages/import.
type ImportPageEndpoint struct{}

var _ api.Endpoint = (*ImportPageEndpoint)(nil)

func (e *ImportPageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pages/import", e.handler
}

func (e *ImportPageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Import page
//	@Description	Create a page from a markdown or HTML body, chosen by Content-Type. Markdown frontmatter may set title, tags and published.
//	@Tags			pages
//	@Accept			text/markdown
//	@Accept			text/html
//	@Produce		json
//	@Param			X-Filename	header		string	false	"Source file name, used for the title fallback"
//	@Success		201			{object}	page.Page
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Failure		415			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/pages/import [post]
func (e *ImportPageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	user, err := authorize(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	filename := r.Header.Get("X-Filename")
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)

	var res *importer.Result
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		res, err = importer.FromHTML(body, filename)
	case "text/markdown", "text/x-markdown", "text/plain", "":
		var data []byte
		if data, err = io.ReadAll(body); err == nil {
			res, err = importer.FromMarkdown(data, filename)
		}
	default:
		writeError(w, http.StatusUnsupportedMediaType, "unsupported content type: "+mediaType)
		return
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = page.Invalid("body", "request body exceeds %d bytes", maxErr.Limit)
		}
		writeServiceError(w, r, err)
		return
	}

	p, err := svc.Create(r.Context(), page.CreateInput{
		Title:     res.Title,
		AuthorID:  user,
		Content:   res.Content,
		Tags:      res.Tags,
		Published: res.Published,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (e *ImportPageEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return grouped(&cobra.Command{
		Use:   "import <file>",
		Short: "Create a page from a markdown or HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			contentType := "text/markdown"
			switch strings.ToLower(filepath.Ext(args[0])) {
			case ".html", ".htm":
				contentType = "text/html"
			}
			headers := map[string]string{"X-Filename": filepath.Base(args[0])}
			var p page.Page
			if err := newClient().PostRaw(cmd.Context(), "/api/pages/import", contentType, headers, bytes.NewReader(data), &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}, pagesGroup)
}
