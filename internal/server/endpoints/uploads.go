package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/upload"
)

// UploadEndpoint handles POST /api/upload.
type UploadEndpoint struct{}

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/upload", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Upload image
//	@Description	Upload raw image bytes. The image is re-encoded as JPEG, downscaled to the configured width and stored under a name derived from its content hash.
//	@Tags			uploads
//	@Accept			application/octet-stream
//	@Produce		json
//	@Param			X-Filename	header		string	false	"Original file name, used for alt text"
//	@Success		200			{object}	upload.Result	"Identical image already stored"
//	@Success		201			{object}	upload.Result
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/upload [post]
func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.UploadsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "upload store not initialized")
		return
	}
	if _, err := authorize(r); err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := store.Save(r.Context(), r.Body, r.Header.Get("X-Filename"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Existing {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (e *UploadEndpoint) Command(newClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			headers := map[string]string{"X-Filename": filepath.Base(args[0])}
			var res upload.Result
			if err := newClient().PostRaw(cmd.Context(), "/api/upload", "application/octet-stream", headers, f, &res); err != nil {
				return err
			}
			return api.Output(res)
		},
	}
}

// ServeUploadEndpoint handles GET /uploads/{name}.
type ServeUploadEndpoint struct{}

var _ api.Endpoint = (*ServeUploadEndpoint)(nil)

func (e *ServeUploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", upload.DefaultURLPath + "{name}", e.handler
}

func (e *ServeUploadEndpoint) RequiresInit() bool { return false }

func (e *ServeUploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.UploadsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "upload store not initialized")
		return
	}
	name := r.PathValue("name")
	f, err := store.Open(name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Names are content hashes, so a stored file never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (e *ServeUploadEndpoint) Command(_ func() *api.Client) *cobra.Command {
	return nil
}
