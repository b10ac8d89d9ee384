package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/importer"
	"github.com/jackzampolin/folio/internal/page"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/upload"
)

// maxJSONBody bounds JSON request bodies. Page content is stored as JSON,
// so this is generous.
const maxJSONBody = 8 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps service errors to HTTP statuses. Persistence and
// unknown errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *page.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, page.ErrNotFound), errors.Is(err, upload.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, page.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, page.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, page.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, upload.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, upload.ErrEmpty),
		errors.Is(err, upload.ErrUnsupported),
		errors.Is(err, importer.ErrInvalid),
		errors.Is(err, page.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		svcctx.LoggerFrom(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a bounded JSON body into v. Malformed bodies are
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return page.Invalid("body", "request body is empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return page.Invalid("body", "request body exceeds %d bytes", maxErr.Limit)
		}
		return page.Invalid("body", "invalid JSON: %v", err)
	}
	return nil
}

// authorize returns the writing user, or an error when writes are not
// allowed for this request.
func authorize(r *http.Request) (string, error) {
	guard := svcctx.AuthFrom(r.Context())
	if guard == nil {
		return "", nil
	}
	return guard.Authorize(r.Context())
}

// pagesFrom returns the page service or writes a 503.
func pagesFrom(w http.ResponseWriter, r *http.Request) (*page.Service, bool) {
	svc := svcctx.PagesFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "page service not initialized")
		return nil, false
	}
	return svc, true
}

func pagePath(slug string, suffix ...string) string {
	p := "/api/pages/" + url.PathEscape(slug)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func boolParam(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	switch v {
	case "":
		return nil, nil
	case "true", "1":
		b := true
		return &b, nil
	case "false", "0":
		b := false
		return &b, nil
	}
	return nil, page.Invalid(name, "must be true or false, got %q", v)
}

// grouped nests cmd under "folio api <group>".
func grouped(cmd *cobra.Command, group string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[api.GroupAnnotation] = group
	return cmd
}
