// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/tradehub/internal/app/system/apierr"
)

// Handler answers requests that match no route, in the JSON error shape
// every other endpoint uses.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	apierr.JSON(w, http.StatusNotFound, apierr.NotFound("route not found"))
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierr.JSON(w, http.StatusMethodNotAllowed, &apierr.Error{
		Status:  http.StatusMethodNotAllowed,
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}
