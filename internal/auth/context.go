package auth

import (
	"context"
	"strconv"

	"github.com/salesdesk/crm-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID uint
	Name   string
	Email  string
	Role   domain.Role
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics. Only safe behind the
// Authenticate middleware.
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if the user has a specific role
func (u *UserContext) HasRole(role domain.Role) bool {
	return u.Role == role
}

// HasAnyRole checks if the user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.Role) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsSales reports whether the caller is scoped to their own records.
func (u *UserContext) IsSales() bool {
	return u.Role == domain.RoleSales
}

// UserIDString returns the user id formatted for log fields and rate
// limiter keys.
func (u *UserContext) UserIDString() string {
	return strconv.FormatUint(uint64(u.UserID), 10)
}
