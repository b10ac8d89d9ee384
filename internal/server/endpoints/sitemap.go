package endpoints

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// SitemapEndpoint handles GET /sitemap.xml.
type SitemapEndpoint struct {
	// BaseURL overrides the origin derived from the request.
	BaseURL string
}

var _ api.Endpoint = (*SitemapEndpoint)(nil)

func (e *SitemapEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/sitemap.xml", e.handler
}

func (e *SitemapEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Sitemap
//	@Description	Published, non-deleted pages as a sitemaps.org document
//	@Tags			pages
//	@Produce		xml
//	@Success		200	{string}	string
//	@Failure		500	{object}	ErrorResponse
//	@Router			/sitemap.xml [get]
func (e *SitemapEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc, ok := pagesFrom(w, r)
	if !ok {
		return
	}
	pages, err := svc.ListPublished(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	base := e.BaseURL
	if base == "" {
		base = requestOrigin(r)
	}
	base = strings.TrimSuffix(base, "/")

	set := urlSet{XMLNS: sitemapNS, URLs: make([]sitemapURL, 0, len(pages))}
	for _, p := range pages {
		if !p.Visible() {
			continue
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     base + pagePath(p.Slug, "export") + "?format=html",
			LastMod: p.UpdatedAt.UTC().Format("2006-01-02"),
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return
	}
	w.Write([]byte("\n"))
}

// requestOrigin reconstructs scheme and host, honoring a proxy's
// X-Forwarded-Proto.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return (&url.URL{Scheme: scheme, Host: r.Host}).String()
}

func (e *SitemapEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "sitemap",
		Short: "Print the sitemap",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient().GetRaw(cmd.Context(), "/sitemap.xml")
			if err != nil {
				return err
			}
			return api.OutputRaw(data, "")
		},
	}
}
