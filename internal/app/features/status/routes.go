// internal/app/features/status/routes.go
package status

import (
	"github.com/dalemusser/copilot/internal/app/system/auth"
	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the status report for super admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireUserType(models.UserTypeSuperAdmin))
	r.Get("/", h.Serve)
	return r
}
