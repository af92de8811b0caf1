// internal/app/features/teams/routes.go
package teams

import "github.com/go-chi/chi/v5"

// Routes serves the overview endpoints; mount under /teams/{teamID}.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeSummary)
	r.Get("/cycles/{parentLabel}", h.ServeSummary)
	return r
}
