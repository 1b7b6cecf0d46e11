package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/config"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMiddleware() *auth.Middleware {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	return auth.NewMiddleware(cfg, zap.NewNop())
}

func TestMiddleware_Authenticate(t *testing.T) {
	mw := newMiddleware()

	var captured *auth.UserContext
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid bearer token reaches the handler", func(t *testing.T) {
		captured = nil
		token := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.EqualValues(t, 42, captured.UserID)
		assert.Equal(t, domain.RoleSales, captured.Role)
	})

	t.Run("missing header is unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthenticated")
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token gets the invalid_credential kind", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		token := signToken(t, testSecret, jwt.SigningMethodHS256, claims)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_credential")
		assert.Contains(t, rec.Body.String(), "expired")
	})
}

func TestMiddleware_RequireRole(t *testing.T) {
	mw := newMiddleware()

	protected := mw.RequireRole(domain.RoleAdmin, domain.RoleManager)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	serveAs := func(role domain.Role) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
		ctx := auth.WithUserContext(req.Context(), &auth.UserContext{UserID: 1, Role: role})
		protected.ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	t.Run("allowed roles pass", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serveAs(domain.RoleAdmin).Code)
		assert.Equal(t, http.StatusOK, serveAs(domain.RoleManager).Code)
	})

	t.Run("other roles are denied", func(t *testing.T) {
		rec := serveAs(domain.RoleSales)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "access_denied")
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
