package login_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/tradehub/internal/app/features/login"
	userstore "github.com/dalemusser/tradehub/internal/app/store/users"
	"github.com/dalemusser/tradehub/internal/app/system/auth"
	"github.com/dalemusser/tradehub/internal/app/system/indexes"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"github.com/dalemusser/tradehub/internal/testutil"
	"go.uber.org/zap"
)

type authBody struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func newHandler(t *testing.T) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	h := login.NewHandler(db, auth.NewIssuer("test-secret", time.Hour), 4, nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func TestHandleRegister_Success(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]any{
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "secret123",
		"location": map[string]string{"city": "  Pune  "},
	})
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := testutil.DecodeBody[authBody](t, rec)
	if body.Token == "" {
		t.Error("expected a token")
	}
	if body.User.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", body.User.Email)
	}
	if body.User.Location.City != "Pune" {
		t.Errorf("city not normalized: %q", body.User.Location.City)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("password hash leaked into response")
	}

	id, err := h.Tokens.Verify(body.Token)
	if err != nil || id != body.User.ID {
		t.Errorf("token does not identify user: id=%v err=%v", id, err)
	}
}

func TestHandleRegister_Duplicate(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "bob", "bob@example.com")

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same email", "bobby", "BOB@example.com"},
		{"same username different case", "BOB", "other@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
				"username": tt.username,
				"email":    tt.email,
				"password": "secret123",
			})
			rec := httptest.NewRecorder()
			h.HandleRegister(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			body := testutil.DecodeBody[testutil.ErrorBody](t, rec)
			if body.Error != "A user with this email or username already exists." {
				t.Errorf("unexpected message %q", body.Error)
			}
		})
	}
}

func TestHandleRegister_Validation(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"short password", map[string]string{"username": "carol", "email": "c@example.com", "password": "123"}, "password"},
		{"bad email", map[string]string{"username": "carol", "email": "nope", "password": "secret123"}, "email"},
		{"missing username", map[string]string{"email": "c@example.com", "password": "secret123"}, "username"},
		{"bad username", map[string]string{"username": "a b", "email": "c@example.com", "password": "secret123"}, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			body := testutil.DecodeBody[testutil.ErrorBody](t, rec)
			if _, ok := body.Fields[tt.field]; !ok {
				t.Errorf("expected field error for %q, got %v", tt.field, body.Fields)
			}
		})
	}
}

func TestHandleRegister_MalformedJSON(t *testing.T) {
	h, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleLogin(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := fx.CreateUser(ctx, "dave", "dave@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"success", "dave@example.com", testutil.TestPassword, http.StatusOK},
		{"email case-insensitive", "DAVE@example.com", testutil.TestPassword, http.StatusOK},
		{"wrong password", "dave@example.com", "wrong-password", http.StatusUnauthorized},
		{"unknown email", "nobody@example.com", testutil.TestPassword, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]string{
				"email":    tt.email,
				"password": tt.password,
			}))

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusOK {
				body := testutil.DecodeBody[authBody](t, rec)
				if body.User.ID != user.ID || body.Token == "" {
					t.Errorf("unexpected body %+v", body)
				}
				return
			}
			body := testutil.DecodeBody[testutil.ErrorBody](t, rec)
			if body.Error != "invalid credentials" {
				t.Errorf("unexpected message %q", body.Error)
			}
		})
	}
}

func TestServeMe(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := fx.CreateUser(ctx, "erin", "erin@example.com")

	rec := httptest.NewRecorder()
	h.ServeMe(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/me"), user))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := testutil.DecodeBody[models.User](t, rec)
	if got.ID != user.ID || got.Username != "erin" {
		t.Errorf("unexpected user %+v", got)
	}
}

func TestRoutes_MeRequiresToken(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := fx.CreateUser(ctx, "frank", "frank@example.com")

	mw := auth.NewMiddleware(h.Tokens, userstore.NewFetcher(h.DB), zap.NewNop())
	router := login.Routes(h, mw, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/me"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	req := testutil.NewRequest(http.MethodGet, "/me")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("bad token: expected 403, got %d", rec.Code)
	}

	token, _ := h.Tokens.Issue(user.ID)
	req = testutil.NewRequest(http.MethodGet, "/me")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", rec.Code)
	}
}
