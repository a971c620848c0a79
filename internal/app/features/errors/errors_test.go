package errors_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	errorsfeature "github.com/dalemusser/tradehub/internal/app/features/errors"
	"github.com/dalemusser/tradehub/internal/testutil"
	"github.com/go-chi/chi/v5"
)

func TestRouterFallbacks(t *testing.T) {
	h := errorsfeature.NewHandler()
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/things", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, "not_found"},
		{"wrong method", http.MethodDelete, "/things", http.StatusMethodNotAllowed, "method_not_allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			body := testutil.DecodeBody[testutil.ErrorBody](t, rec)
			if body.Code != tt.code || body.Error == "" {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}
}
