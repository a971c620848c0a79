package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/tradehub/internal/app/system/apierr"
	"github.com/dalemusser/tradehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user & “found?” flag.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// WithUser returns a copy of ctx carrying u. RequireAuth uses it; tests use
// it to call protected handlers directly.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// UserFetcher loads the current state of a user. It returns (nil, nil) when
// the user does not exist.
type UserFetcher interface {
	FetchUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Middleware authenticates bearer tokens.
type Middleware struct {
	tokens *Issuer
	users  UserFetcher
	log    *zap.Logger
}

// NewMiddleware builds the bearer-token middleware.
func NewMiddleware(tokens *Issuer, users UserFetcher, log *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, users: users, log: log}
}

// RequireAuth rejects requests without a valid bearer token.
//
//   - no Authorization header, or not "Bearer <token>": 401
//   - bad signature, wrong algorithm, expired, or user gone: 403
//
// On success the user, loaded fresh from the database, is placed in the
// request context (see CurrentUser).
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			apierr.Write(w, r, m.log, apierr.Unauthenticated("access token required"))
			return
		}

		userID, err := m.tokens.Verify(raw)
		if err != nil {
			apierr.Write(w, r, m.log, apierr.Forbidden("invalid or expired token"))
			return
		}

		u, err := m.users.FetchUser(r.Context(), userID)
		if err != nil {
			apierr.Write(w, r, m.log, err)
			return
		}
		if u == nil {
			apierr.Write(w, r, m.log, apierr.Forbidden("invalid or expired token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
