// internal/app/features/participation/routes.go
package participation

import "github.com/go-chi/chi/v5"

// Routes serves the JSON view; mount under /teams/{teamID}/participation.
// The spreadsheet export is registered by the parent router since its path
// is a sibling: /teams/{teamID}/participation.xlsx.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeParticipation)
	return r
}
