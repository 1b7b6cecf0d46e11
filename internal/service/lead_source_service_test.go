package service_test

import (
	"testing"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadSourceService(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadSourceService(db)
	manager := seedUser(t, db, "Manager LS", domain.RoleManager)
	sales := seedUser(t, db, "Sales LS", domain.RoleSales)

	t.Run("manager creates with default active status", func(t *testing.T) {
		source, err := svc.Create(ctxFor(manager), &domain.CreateLeadSourceRequest{Name: "Facebook"})
		require.NoError(t, err)
		assert.Equal(t, domain.LeadSourceActive, source.Status)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := svc.Create(ctxFor(manager), &domain.CreateLeadSourceRequest{Name: "Facebook"})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("sales cannot create", func(t *testing.T) {
		_, err := svc.Create(ctxFor(sales), &domain.CreateLeadSourceRequest{Name: "Walk-in"})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("every authenticated role lists", func(t *testing.T) {
		sources, err := svc.List(ctxFor(sales))
		require.NoError(t, err)
		assert.Len(t, sources, 1)
	})

	t.Run("rename checks the new name for conflicts", func(t *testing.T) {
		source, err := svc.Create(ctxFor(manager), &domain.CreateLeadSourceRequest{Name: "Instagram"})
		require.NoError(t, err)

		_, err = svc.Update(ctxFor(manager), source.ID, &domain.UpdateLeadSourceRequest{Name: strPtr("Facebook")})
		assert.ErrorIs(t, err, service.ErrConflict)

		inactive := domain.LeadSourceInactive
		updated, err := svc.Update(ctxFor(manager), source.ID, &domain.UpdateLeadSourceRequest{
			Name:   strPtr("Meta"),
			Status: &inactive,
		})
		require.NoError(t, err)
		assert.Equal(t, "Meta", updated.Name)
		assert.Equal(t, domain.LeadSourceInactive, updated.Status)
	})

	t.Run("unknown source is not found", func(t *testing.T) {
		_, err := svc.Update(ctxFor(manager), 99999, &domain.UpdateLeadSourceRequest{Name: strPtr("Ghost")})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
