package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWrite_TypedError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad request", BadRequest("title is required", map[string]string{"title": "Title is required."}), 400, CodeValidation},
		{"unauthenticated", Unauthenticated("missing token"), 401, CodeUnauthenticated},
		{"forbidden", Forbidden("not your listing"), 403, CodeForbidden},
		{"not found", NotFound("listing not found"), 404, CodeNotFound},
		{"conflict", Conflict("listing deleted"), 409, CodeConflict},
		{"too large", TooLarge("file too large"), 413, CodeTooLarge},
		{"rate limited", RateLimited("slow down"), 429, CodeRateLimited},
		{"wrapped", fmt.Errorf("create: %w", NotFound("category not found")), 404, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)

			Write(rec, req, zap.NewNop(), tt.err)

			require.Equal(t, tt.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.code, body["code"])
			require.NotEmpty(t, body["error"])
		})
	}
}

func TestWrite_FieldsIncluded(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/listings", nil)

	Write(rec, req, zap.NewNop(), BadRequest("validation failed", map[string]string{"year": "Year is required."}))

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Year is required.", body.Fields["year"])
}

func TestWrite_InternalErrorIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)

	Write(rec, req, zap.NewNop(), errors.New("connection refused: mongo at 10.0.0.5"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "10.0.0.5")
	require.Contains(t, rec.Body.String(), "internal server error")
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var dst struct{ Title string }
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Bike"}`))
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, 1024, &dst))
		require.Equal(t, "Bike", dst.Title)
	})

	t.Run("malformed", func(t *testing.T) {
		var dst struct{}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{nope`))
		err := DecodeJSON(httptest.NewRecorder(), req, 1024, &dst)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.Status)
	})

	t.Run("too large", func(t *testing.T) {
		var dst struct{ Title string }
		body := `{"title":"` + strings.Repeat("x", 100) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSON(httptest.NewRecorder(), req, 10, &dst)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusRequestEntityTooLarge, apiErr.Status)
	})
}
