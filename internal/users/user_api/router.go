package user_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"ms-users/internal/utils"
)

// NewRouter mounts the user endpoints plus the JSON routing fallbacks.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(h.RequestLogger)
	r.Use(h.Recoverer)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)

		r.Route("/{userID:[0-9]+}", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.Put("/", h.ReplaceUser)
			r.Patch("/", h.UpdateUser)
			r.Delete("/", h.DeleteUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.Error(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
