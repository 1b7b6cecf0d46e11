package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/salesdesk/crm-api/internal/config"
	"github.com/salesdesk/crm-api/internal/domain"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	verifier *JWTVerifier
	logger   *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		verifier: NewJWTVerifier(&cfg.JWT),
		logger:   logger,
	}
}

// Authenticate verifies the bearer token and injects the caller's identity
// into the request context. Requests without a credential get 401 with the
// unauthenticated error kind; malformed or expired tokens get the
// invalid_credential kind.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondAuthError(w, domain.NewUnauthenticatedError("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respondAuthError(w, domain.NewUnauthenticatedError("authorization header must be a bearer token"))
			return
		}

		userCtx, err := m.verifier.Verify(parts[1])
		if err != nil {
			m.logger.Warn("token verification failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			if errors.Is(err, ErrTokenExpired) {
				respondAuthError(w, domain.NewInvalidCredentialError("token is expired"))
				return
			}
			respondAuthError(w, domain.NewInvalidCredentialError("token is invalid"))
			return
		}

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only callers holding one of the given roles.
// Must be mounted behind Authenticate.
func (m *Middleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				respondAuthError(w, domain.NewUnauthenticatedError("missing authentication"))
				return
			}
			if !userCtx.HasAnyRole(roles...) {
				m.logger.Warn("role check failed",
					zap.String("path", r.URL.Path),
					zap.String("user_id", userCtx.UserIDString()),
					zap.String("role", string(userCtx.Role)),
				)
				respondAuthError(w, domain.NewAccessDeniedError("insufficient role for this operation"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondAuthError(w http.ResponseWriter, apiErr *domain.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(apiErr)
}
