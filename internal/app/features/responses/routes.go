// internal/app/features/responses/routes.go
package responses

import "github.com/go-chi/chi/v5"

// CycleModuleRoutes serves module lookups under a cycle; mount under
// /teams/{teamID}/cycles/{parentLabel}/modules/{moduleLabel}/responses.
func CycleModuleRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeCycleModule)
	return r
}

// StepModuleRoutes is CycleModuleRoutes for steps.
func StepModuleRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeStepModule)
	return r
}

// Routes serves response writes; mount under /responses.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Put("/{responseID}", h.HandleUpdate)
	return r
}
