// internal/app/features/invitations/routes.go
package invitations

import "github.com/go-chi/chi/v5"

// CodeRoutes serves code lookups; mount under /participation-codes.
func CodeRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{code}", h.ServeCode)
	return r
}

// TeamRoutes serves invitations; mount under /teams/{teamID}/invitations.
func TeamRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleInvite)
	return r
}
