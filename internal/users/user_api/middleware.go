package user_api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"ms-users/internal/utils"
)

// RequestLogger logs every request with its status and elapsed time.
func (h *Handler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.Logger.LogAPI(
			r.Method,
			r.URL.Path,
			fmt.Sprintf("%d", ww.Status()),
			time.Since(start).String(),
		)
	})
}

// Recoverer converts an unhandled panic into the generic 500 body.
func (h *Handler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Logger.Error("HTTP", fmt.Sprintf("panic serving %s %s: %v", r.Method, r.URL.Path, rec))
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
