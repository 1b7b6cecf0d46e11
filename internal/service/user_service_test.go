package service_test

import (
	"testing"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_Register(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	admin := seedUser(t, db, "Admin U", domain.RoleAdmin)
	manager := seedUser(t, db, "Manager U", domain.RoleManager)

	t.Run("admin registers a sales user with a hashed password", func(t *testing.T) {
		user, err := svc.Register(ctxFor(admin), &domain.RegisterUserRequest{
			Name:     "New Seller",
			Email:    "seller@example.com",
			Role:     domain.RoleSales,
			Password: "super-secret-1",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSales, user.Role)

		var stored domain.User
		require.NoError(t, db.First(&stored, user.ID).Error)
		assert.NotEqual(t, "super-secret-1", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("super-secret-1")))
	})

	t.Run("manager cannot register users", func(t *testing.T) {
		_, err := svc.Register(ctxFor(manager), &domain.RegisterUserRequest{
			Name:     "Denied",
			Email:    "denied@example.com",
			Role:     domain.RoleSales,
			Password: "irrelevant-1",
		})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctxFor(admin), &domain.RegisterUserRequest{
			Name:     "Duplicate",
			Email:    "seller@example.com",
			Role:     domain.RoleSales,
			Password: "whatever-123",
		})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("unknown role fails validation", func(t *testing.T) {
		_, err := svc.Register(ctxFor(admin), &domain.RegisterUserRequest{
			Name:     "Strange Role",
			Email:    "strange@example.com",
			Role:     "intern",
			Password: "whatever-123",
		})
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestUserService_Read(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	admin := seedUser(t, db, "Admin UR", domain.RoleAdmin)
	manager := seedUser(t, db, "Manager UR", domain.RoleManager)
	salesA := seedUser(t, db, "Sales UR A", domain.RoleSales)
	salesB := seedUser(t, db, "Sales UR B", domain.RoleSales)

	t.Run("sales read themselves only", func(t *testing.T) {
		me, err := svc.GetByID(ctxFor(salesA), salesA.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sales UR A", me.Name)

		_, err = svc.GetByID(ctxFor(salesA), salesB.ID)
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("manager lists with a role filter", func(t *testing.T) {
		role := domain.RoleSales
		users, err := svc.List(ctxFor(manager), &role)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("sales cannot list", func(t *testing.T) {
		_, err := svc.List(ctxFor(salesA), nil)
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("admin lists everyone", func(t *testing.T) {
		users, err := svc.List(ctxFor(admin), nil)
		require.NoError(t, err)
		assert.Len(t, users, 4)
	})
}

func TestUserService_Update(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)
	admin := seedUser(t, db, "Admin UU", domain.RoleAdmin)
	sales := seedUser(t, db, "Sales UU", domain.RoleSales)

	t.Run("users edit their own profile", func(t *testing.T) {
		updated, err := svc.Update(ctxFor(sales), sales.ID, &domain.UpdateUserRequest{
			Name:  strPtr("Sales UU Renamed"),
			Phone: strPtr("+4791112233"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Sales UU Renamed", updated.Name)
		assert.Equal(t, "+4791112233", updated.Phone)
	})

	t.Run("only admins change roles", func(t *testing.T) {
		role := domain.RoleManager
		_, err := svc.Update(ctxFor(sales), sales.ID, &domain.UpdateUserRequest{Role: &role})
		assert.ErrorIs(t, err, service.ErrAccessDenied)

		updated, err := svc.Update(ctxFor(admin), sales.ID, &domain.UpdateUserRequest{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleManager, updated.Role)
	})

	t.Run("users cannot edit someone else", func(t *testing.T) {
		_, err := svc.Update(ctxFor(sales), admin.ID, &domain.UpdateUserRequest{Name: strPtr("Hijack")})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("password change rehashes", func(t *testing.T) {
		_, err := svc.Update(ctxFor(admin), sales.ID, &domain.UpdateUserRequest{Password: strPtr("another-secret")})
		require.NoError(t, err)

		var stored domain.User
		require.NoError(t, db.First(&stored, sales.ID).Error)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("another-secret")))
	})
}
