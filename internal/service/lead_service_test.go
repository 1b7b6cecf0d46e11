package service_test

import (
	"context"
	"testing"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadService_Register(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadService(db)
	ctx := context.Background()

	t.Run("creates lead with normalized phone and source", func(t *testing.T) {
		result, err := svc.Register(ctx, &domain.RegisterLeadRequest{
			Name:       "Ola Nordmann",
			Phone:      "+47 912 34 567",
			Email:      "ola@example.com",
			SourceName: "Website",
		})
		require.NoError(t, err)
		assert.False(t, result.Duplicate)
		assert.NotZero(t, result.LeadID)

		var lead domain.Lead
		require.NoError(t, db.First(&lead, result.LeadID).Error)
		assert.Equal(t, "+4791234567", lead.Phone)
		assert.Equal(t, domain.LeadStatusNew, lead.Status)
		require.NotNil(t, lead.SourceID)

		var source domain.LeadSource
		require.NoError(t, db.First(&source, *lead.SourceID).Error)
		assert.Equal(t, "Website", source.Name)
	})

	t.Run("same phone within window is a duplicate", func(t *testing.T) {
		first, err := svc.Register(ctx, &domain.RegisterLeadRequest{
			Name:  "Kari Nordmann",
			Phone: "+47 998 87 766",
		})
		require.NoError(t, err)

		// Different formatting, same normalized number.
		second, err := svc.Register(ctx, &domain.RegisterLeadRequest{
			Name:  "Kari N",
			Phone: "+4799887766",
		})
		require.NoError(t, err)
		assert.True(t, second.Duplicate)
		assert.Equal(t, first.LeadID, second.LeadID)

		var count int64
		require.NoError(t, db.Model(&domain.Lead{}).Where("phone = ?", "+4799887766").Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("phone with no digits is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, &domain.RegisterLeadRequest{Name: "No Phone", Phone: "---"})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("source name reuses the existing source", func(t *testing.T) {
		var before int64
		require.NoError(t, db.Model(&domain.LeadSource{}).Count(&before).Error)

		_, err := svc.Register(ctx, &domain.RegisterLeadRequest{
			Name:       "Repeat Source",
			Phone:      uniquePhone(),
			SourceName: "Website",
		})
		require.NoError(t, err)

		var after int64
		require.NoError(t, db.Model(&domain.LeadSource{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})
}

func TestLeadService_Create(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadService(db)
	admin := seedUser(t, db, "Admin One", domain.RoleAdmin)
	sales := seedUser(t, db, "Sales One", domain.RoleSales)

	t.Run("assigned lead starts in status assigned", func(t *testing.T) {
		lead, err := svc.Create(ctxFor(admin), &domain.CreateLeadRequest{
			Name:       "Assigned Lead",
			Phone:      uniquePhone(),
			AssignedTo: &sales.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusAssigned, lead.Status)
		require.NotNil(t, lead.AssignedTo)
		assert.Equal(t, sales.ID, *lead.AssignedTo)
		assert.Equal(t, "Sales One", lead.AssigneeName)
	})

	t.Run("unassigned lead starts in status new", func(t *testing.T) {
		lead, err := svc.Create(ctxFor(admin), &domain.CreateLeadRequest{Name: "Fresh Lead"})
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusNew, lead.Status)
	})

	t.Run("assigning to a non-sales user fails", func(t *testing.T) {
		_, err := svc.Create(ctxFor(admin), &domain.CreateLeadRequest{
			Name:       "Bad Assignee",
			AssignedTo: &admin.ID,
		})
		assert.ErrorIs(t, err, service.ErrInvalidAssignee)
	})

	t.Run("sales cannot create leads", func(t *testing.T) {
		_, err := svc.Create(ctxFor(sales), &domain.CreateLeadRequest{Name: "Denied"})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})
}

func TestLeadService_Visibility(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadService(db)
	admin := seedUser(t, db, "Admin Two", domain.RoleAdmin)
	manager := seedUser(t, db, "Manager Two", domain.RoleManager)
	salesA := seedUser(t, db, "Sales A", domain.RoleSales)
	salesB := seedUser(t, db, "Sales B", domain.RoleSales)

	mine, err := svc.Create(ctxFor(admin), &domain.CreateLeadRequest{Name: "Mine", AssignedTo: &salesA.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctxFor(admin), &domain.CreateLeadRequest{Name: "Theirs", AssignedTo: &salesB.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctxFor(admin), &domain.CreateLeadRequest{Name: "Nobody's"})
	require.NoError(t, err)

	t.Run("sales read own lead", func(t *testing.T) {
		lead, err := svc.GetByID(ctxFor(salesA), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mine", lead.Name)
	})

	t.Run("sales denied on another's lead", func(t *testing.T) {
		_, err := svc.GetByID(ctxFor(salesB), mine.ID)
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("list is scoped for sales", func(t *testing.T) {
		list, err := svc.List(ctxFor(salesA), repository.LeadFilters{}, 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, list.Total)
		assert.Equal(t, "Mine", list.Items[0].Name)
	})

	t.Run("list is unscoped for managers", func(t *testing.T) {
		list, err := svc.List(ctxFor(manager), repository.LeadFilters{}, 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 3, list.Total)
	})

	t.Run("unknown lead is not found", func(t *testing.T) {
		_, err := svc.GetByID(ctxFor(admin), 99999)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestLeadService_Assign(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadService(db)
	manager := seedUser(t, db, "Manager Three", domain.RoleManager)
	sales := seedUser(t, db, "Sales Three", domain.RoleSales)

	lead, err := svc.Create(ctxFor(manager), &domain.CreateLeadRequest{Name: "To Assign"})
	require.NoError(t, err)

	t.Run("assignment moves new to assigned", func(t *testing.T) {
		updated, err := svc.Assign(ctxFor(manager), lead.ID, sales.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusAssigned, updated.Status)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, sales.ID, *updated.AssignedTo)
	})

	t.Run("sales cannot assign", func(t *testing.T) {
		_, err := svc.Assign(ctxFor(sales), lead.ID, sales.ID)
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("non-sales assignee is rejected", func(t *testing.T) {
		_, err := svc.Assign(ctxFor(manager), lead.ID, manager.ID)
		assert.ErrorIs(t, err, service.ErrInvalidAssignee)
	})
}

func TestLeadService_Update_Transitions(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadService(db)
	admin := seedUser(t, db, "Admin Four", domain.RoleAdmin)
	ctx := ctxFor(admin)

	t.Run("new cannot jump to qualified", func(t *testing.T) {
		lead, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Skipper"})
		require.NoError(t, err)

		status := domain.LeadStatusQualified
		_, err = svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &status})
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		lead, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Bad Status"})
		require.NoError(t, err)

		status := domain.LeadStatus("warm")
		_, err = svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &status})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("field update without status keeps status", func(t *testing.T) {
		lead, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Rename Me"})
		require.NoError(t, err)

		result, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Name: strPtr("Renamed")})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", result.Lead.Name)
		assert.Equal(t, domain.LeadStatusNew, result.Lead.Status)
		assert.Empty(t, result.CustomerAction)
	})
}

func TestLeadService_Update_ContactedSyncsCustomer(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadService(db)
	admin := seedUser(t, db, "Admin Five", domain.RoleAdmin)
	sales := seedUser(t, db, "Sales Five", domain.RoleSales)
	ctx := ctxFor(admin)
	contacted := domain.LeadStatusContacted

	t.Run("creates a new customer carrying the lead identity", func(t *testing.T) {
		phone := uniquePhone()
		lead, err := svc.Create(ctx, &domain.CreateLeadRequest{
			Name:       "Becomes Customer",
			Phone:      phone,
			Email:      "becomes@example.com",
			AssignedTo: &sales.ID,
		})
		require.NoError(t, err)

		result, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &contacted})
		require.NoError(t, err)
		assert.Equal(t, domain.CustomerActionCreatedNew, result.CustomerAction)
		require.NotNil(t, result.CustomerID)

		var customer domain.Customer
		require.NoError(t, db.First(&customer, *result.CustomerID).Error)
		assert.Equal(t, "Becomes Customer", customer.Name)
		require.NotNil(t, customer.Phone)
		assert.Equal(t, phone, *customer.Phone)
		require.NotNil(t, customer.CreatedFromLeadID)
		assert.Equal(t, lead.ID, *customer.CreatedFromLeadID)
		require.NotNil(t, customer.AssignedTo)
		assert.Equal(t, sales.ID, *customer.AssignedTo)
	})

	t.Run("repeating contacted is idempotent", func(t *testing.T) {
		lead, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Twice", Phone: uniquePhone()})
		require.NoError(t, err)

		first, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &contacted})
		require.NoError(t, err)
		assert.Equal(t, domain.CustomerActionCreatedNew, first.CustomerAction)

		second, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &contacted})
		require.NoError(t, err)
		assert.Equal(t, domain.CustomerActionAlreadyExists, second.CustomerAction)
		assert.Equal(t, *first.CustomerID, *second.CustomerID)
	})

	t.Run("merges into an existing customer matched by phone", func(t *testing.T) {
		phone := uniquePhone()
		existing := &domain.Customer{Name: "Old Name", Phone: &phone}
		require.NoError(t, db.Create(existing).Error)

		lead, err := svc.Create(ctx, &domain.CreateLeadRequest{
			Name:       "New Name",
			Phone:      phone,
			AssignedTo: &sales.ID,
		})
		require.NoError(t, err)

		result, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &contacted})
		require.NoError(t, err)
		assert.Equal(t, domain.CustomerActionUpdatedExisting, result.CustomerAction)
		require.NotNil(t, result.CustomerID)
		assert.Equal(t, existing.ID, *result.CustomerID)

		var merged domain.Customer
		require.NoError(t, db.First(&merged, existing.ID).Error)
		assert.Equal(t, "New Name", merged.Name)
		require.NotNil(t, merged.AssignedTo)
		assert.Equal(t, sales.ID, *merged.AssignedTo)
		require.NotNil(t, merged.CreatedFromLeadID)
		assert.Equal(t, lead.ID, *merged.CreatedFromLeadID)
	})

	t.Run("unassigned lead keeps the customer's assignee", func(t *testing.T) {
		phone := uniquePhone()
		existing := &domain.Customer{Name: "Keeps Seller", Phone: &phone, AssignedTo: &sales.ID}
		require.NoError(t, db.Create(existing).Error)

		lead, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Keeps Seller", Phone: phone})
		require.NoError(t, err)

		result, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Status: &contacted})
		require.NoError(t, err)
		assert.Equal(t, domain.CustomerActionUpdatedExisting, result.CustomerAction)

		var merged domain.Customer
		require.NoError(t, db.First(&merged, existing.ID).Error)
		require.NotNil(t, merged.AssignedTo)
		assert.Equal(t, sales.ID, *merged.AssignedTo)
	})
}

func TestLeadService_Update_LostArchives(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadService(db)
	admin := seedUser(t, db, "Admin Six", domain.RoleAdmin)
	ctx := ctxFor(admin)
	lost := domain.LeadStatusLost

	lead, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Going Cold", Phone: uniquePhone()})
	require.NoError(t, err)

	result, err := svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{
		Status:     &lost,
		LostReason: "no budget",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusLost, result.Lead.Status)

	// The source row stays in place with the new status.
	var source domain.Lead
	require.NoError(t, db.First(&source, lead.ID).Error)
	assert.Equal(t, domain.LeadStatusLost, source.Status)

	var archived domain.LeadLost
	require.NoError(t, db.Where("original_lead_id = ?", lead.ID).First(&archived).Error)
	assert.Equal(t, "Going Cold", archived.Name)
	assert.Equal(t, "no budget", archived.LostReason)
	assert.False(t, archived.LostAt.IsZero())

	t.Run("archive is readable through the service", func(t *testing.T) {
		dto, err := svc.GetLostByLeadID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, lead.ID, dto.OriginalLeadID)
		assert.Equal(t, "no budget", dto.LostReason)

		list, err := svc.ListLost(ctx, 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, list.Total)
	})
}

func TestLeadService_Update_LostRollsBackWithoutArchive(t *testing.T) {
	db := setupTestDB(t)
	svc := newLeadService(db)
	admin := seedUser(t, db, "Admin Seven", domain.RoleAdmin)
	ctx := ctxFor(admin)
	lost := domain.LeadStatusLost

	lead, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Half Lost", Phone: uniquePhone()})
	require.NoError(t, err)

	// With the archive table gone the INSERT inside the transaction
	// fails, which must also revert the status change on the lead.
	require.NoError(t, db.Exec("DROP TABLE leads_lost").Error)

	_, err = svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{
		Status:     &lost,
		LostReason: "went dark",
	})
	assert.ErrorIs(t, err, service.ErrTransactionFailed)

	var source domain.Lead
	require.NoError(t, db.First(&source, lead.ID).Error)
	assert.Equal(t, domain.LeadStatusNew, source.Status)
}
