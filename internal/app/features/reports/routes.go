// internal/app/features/reports/routes.go
package reports

import "github.com/go-chi/chi/v5"

// Routes serves report listings; mount under /teams/{teamID}/reports.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeReports)
	return r
}

// ClassroomRoutes serves one classroom's reports; mount under
// /teams/{teamID}/classrooms/{classroomID}/reports.
func ClassroomRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeClassroomReports)
	return r
}
