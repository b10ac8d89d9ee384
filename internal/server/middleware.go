package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// middleware wraps the route mux with request ids, real client addresses,
// request logging, panic recovery, services and user identification. The
// first entry is the outermost.
func (s *Server) middleware(mux http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		s.logRequests,
		middleware.Recoverer,
		s.withServices,
		s.guard.Middleware,
	}
	h := mux
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := s.logger.Debug
			if status >= http.StatusInternalServerError {
				level = s.logger.Error
			} else if r.Method != http.MethodGet && r.Method != http.MethodHead {
				level = s.logger.Info
			}
			level("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
