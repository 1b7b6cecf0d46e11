package service_test

import (
	"testing"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_Create(t *testing.T) {
	db := setupTestDB(t)
	svc := newCustomerService(db)
	admin := seedUser(t, db, "Admin Cust", domain.RoleAdmin)
	sales := seedUser(t, db, "Sales Cust", domain.RoleSales)

	t.Run("sales-created customers land on the creator", func(t *testing.T) {
		customer, err := svc.Create(ctxFor(sales), &domain.CreateCustomerRequest{
			Name:  "Self Assigned",
			Phone: uniquePhone(),
		})
		require.NoError(t, err)
		require.NotNil(t, customer.AssignedTo)
		assert.Equal(t, sales.ID, *customer.AssignedTo)
	})

	t.Run("admin may leave a customer unassigned", func(t *testing.T) {
		customer, err := svc.Create(ctxFor(admin), &domain.CreateCustomerRequest{Name: "Unassigned"})
		require.NoError(t, err)
		assert.Nil(t, customer.AssignedTo)
	})

	t.Run("admin assigning a non-sales user fails", func(t *testing.T) {
		_, err := svc.Create(ctxFor(admin), &domain.CreateCustomerRequest{
			Name:       "Bad Target",
			AssignedTo: &admin.ID,
		})
		assert.ErrorIs(t, err, service.ErrInvalidAssignee)
	})

	t.Run("duplicate phone conflicts", func(t *testing.T) {
		phone := uniquePhone()
		_, err := svc.Create(ctxFor(admin), &domain.CreateCustomerRequest{Name: "First", Phone: phone})
		require.NoError(t, err)

		// Same number, different formatting.
		_, err = svc.Create(ctxFor(admin), &domain.CreateCustomerRequest{Name: "Second", Phone: phone + " "})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Create(ctxFor(admin), &domain.CreateCustomerRequest{Name: "First", Email: "dup@example.com"})
		require.NoError(t, err)

		_, err = svc.Create(ctxFor(admin), &domain.CreateCustomerRequest{Name: "Second", Email: "dup@example.com"})
		assert.ErrorIs(t, err, service.ErrConflict)
	})
}

func TestCustomerService_Import(t *testing.T) {
	db := setupTestDB(t)
	svc := newCustomerService(db)
	manager := seedUser(t, db, "Manager Import", domain.RoleManager)
	sales := seedUser(t, db, "Sales Import", domain.RoleSales)

	t.Run("collects per-row failures without aborting", func(t *testing.T) {
		phone := uniquePhone()
		result, err := svc.Import(ctxFor(manager), &domain.ImportCustomersRequest{
			Rows: []domain.CreateCustomerRequest{
				{Name: "Row One", Phone: phone},
				{Name: "Row Two", Phone: phone}, // duplicate of row one
				{Name: "Row Three"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Created)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "row 2")
	})

	t.Run("sales cannot import", func(t *testing.T) {
		_, err := svc.Import(ctxFor(sales), &domain.ImportCustomersRequest{
			Rows: []domain.CreateCustomerRequest{{Name: "Nope"}},
		})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})
}

func TestCustomerService_Visibility(t *testing.T) {
	db := setupTestDB(t)
	svc := newCustomerService(db)
	admin := seedUser(t, db, "Admin Vis", domain.RoleAdmin)
	salesA := seedUser(t, db, "Sales Vis A", domain.RoleSales)
	salesB := seedUser(t, db, "Sales Vis B", domain.RoleSales)

	mine := seedCustomer(t, db, "Mine", &salesA.ID)
	seedCustomer(t, db, "Theirs", &salesB.ID)
	seedCustomer(t, db, "Unassigned", nil)

	t.Run("sales read own customer", func(t *testing.T) {
		customer, err := svc.GetByID(ctxFor(salesA), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mine", customer.Name)
		assert.Equal(t, "Sales Vis A", customer.AssigneeName)
	})

	t.Run("sales denied on another's customer", func(t *testing.T) {
		_, err := svc.GetByID(ctxFor(salesB), mine.ID)
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("list scoped to own customers for sales", func(t *testing.T) {
		list, err := svc.List(ctxFor(salesA), repository.CustomerFilters{}, 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, list.Total)
	})

	t.Run("list unscoped for admin", func(t *testing.T) {
		list, err := svc.List(ctxFor(admin), repository.CustomerFilters{}, 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 3, list.Total)
	})
}

func TestCustomerService_Update(t *testing.T) {
	db := setupTestDB(t)
	svc := newCustomerService(db)
	admin := seedUser(t, db, "Admin Upd", domain.RoleAdmin)
	sales := seedUser(t, db, "Sales Upd", domain.RoleSales)
	ctx := ctxFor(admin)

	t.Run("changed phone is checked against other customers only", func(t *testing.T) {
		phone := uniquePhone()
		customer, err := svc.Create(ctx, &domain.CreateCustomerRequest{Name: "Keeps Phone", Phone: phone})
		require.NoError(t, err)

		// Re-submitting the current phone is not a conflict.
		updated, err := svc.Update(ctx, customer.ID, &domain.UpdateCustomerRequest{
			Name:  strPtr("Keeps Phone Still"),
			Phone: &phone,
		})
		require.NoError(t, err)
		assert.Equal(t, phone, updated.Phone)

		other, err := svc.Create(ctx, &domain.CreateCustomerRequest{Name: "Other", Phone: uniquePhone()})
		require.NoError(t, err)

		_, err = svc.Update(ctx, other.ID, &domain.UpdateCustomerRequest{Phone: &phone})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("empty phone clears the field", func(t *testing.T) {
		customer, err := svc.Create(ctx, &domain.CreateCustomerRequest{Name: "Clears", Phone: uniquePhone()})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, customer.ID, &domain.UpdateCustomerRequest{Phone: strPtr("")})
		require.NoError(t, err)
		assert.Empty(t, updated.Phone)
	})

	t.Run("sales cannot update another's customer", func(t *testing.T) {
		customer := seedCustomer(t, db, "Guarded", nil)
		_, err := svc.Update(ctxFor(sales), customer.ID, &domain.UpdateCustomerRequest{Name: strPtr("Hacked")})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})
}

func TestCustomerService_AssignAndDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := newCustomerService(db)
	manager := seedUser(t, db, "Manager AD", domain.RoleManager)
	sales := seedUser(t, db, "Sales AD", domain.RoleSales)

	customer := seedCustomer(t, db, "Handover", nil)

	t.Run("manager assigns to sales", func(t *testing.T) {
		assigned, err := svc.Assign(ctxFor(manager), customer.ID, sales.ID)
		require.NoError(t, err)
		require.NotNil(t, assigned.AssignedTo)
		assert.Equal(t, sales.ID, *assigned.AssignedTo)
	})

	t.Run("sales cannot assign", func(t *testing.T) {
		_, err := svc.Assign(ctxFor(sales), customer.ID, sales.ID)
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("sales cannot delete", func(t *testing.T) {
		err := svc.Delete(ctxFor(sales), customer.ID)
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("manager deletes and the customer is gone", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctxFor(manager), customer.ID))

		_, err := svc.GetByID(ctxFor(manager), customer.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
