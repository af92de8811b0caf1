// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/copilot/internal/app/features/shared"
	"go.uber.org/zap"
)

// Handler answers requests the router could not match. No DB needed.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// NotFound answers unknown paths with a JSON 404.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Log.Debug("no route", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	shared.WriteError(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed answers a known path with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	shared.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
}
