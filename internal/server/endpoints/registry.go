package endpoints

import (
	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/defra"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	DefraManager    *defra.DockerManager
	SwaggerSpecPath string
	// PublicURL is the origin used in the sitemap. Derived from each
	// request when empty.
	PublicURL string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{DefraManager: cfg.DefraManager},

		// Page endpoints
		&ListPagesEndpoint{},
		&CreatePageEndpoint{},
		&ImportPageEndpoint{},
		&GetPageEndpoint{},
		&UpdatePageEndpoint{},
		&DeletePageEndpoint{},
		&RestorePageEndpoint{},
		&PublishPageEndpoint{},
		&PageTOCEndpoint{},
		&ExportPageEndpoint{},

		&SearchEndpoint{},

		// Uploads
		&UploadEndpoint{},
		&ServeUploadEndpoint{},

		&SitemapEndpoint{BaseURL: cfg.PublicURL},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}
