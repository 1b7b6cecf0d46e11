package service_test

import (
	"testing"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotationService_Create_Numbering(t *testing.T) {
	db := setupTestDB(t)
	svc := newQuotationService(db)
	admin := seedUser(t, db, "Admin Q", domain.RoleAdmin)
	customer := seedCustomer(t, db, "Quoted Customer", nil)
	product := seedProduct(t, db, "Widget", 100)
	ctx := ctxFor(admin)

	makeReq := func(date string) *domain.CreateQuotationRequest {
		return &domain.CreateQuotationRequest{
			CustomerID:    customer.ID,
			QuotationDate: date,
			Items:         []domain.QuotationItemRequest{{ProductID: product.ID, Qty: 1}},
		}
	}

	first, err := svc.Create(ctx, makeReq("2026-03-01"))
	require.NoError(t, err)
	assert.Equal(t, "QT-2026-0001", first.QuotationNo)
	assert.Equal(t, domain.QuotationStatusDraft, first.Status)

	second, err := svc.Create(ctx, makeReq("2026-04-15"))
	require.NoError(t, err)
	assert.Equal(t, "QT-2026-0002", second.QuotationNo)

	// Each year runs its own sequence.
	other, err := svc.Create(ctx, makeReq("2025-12-31"))
	require.NoError(t, err)
	assert.Equal(t, "QT-2025-0001", other.QuotationNo)
}

func TestQuotationService_Create_Pricing(t *testing.T) {
	db := setupTestDB(t)
	svc := newQuotationService(db)
	admin := seedUser(t, db, "Admin QP", domain.RoleAdmin)
	customer := seedCustomer(t, db, "Priced Customer", nil)
	widget := seedProduct(t, db, "Widget", 100)
	gadget := seedProduct(t, db, "Gadget", 49.99)
	ctx := ctxFor(admin)

	t.Run("lines snapshot name and price with line discounts", func(t *testing.T) {
		quotation, err := svc.Create(ctx, &domain.CreateQuotationRequest{
			CustomerID: customer.ID,
			TaxPercent: 25,
			Items: []domain.QuotationItemRequest{
				{ProductID: widget.ID, Qty: 2},
				{ProductID: gadget.ID, Qty: 3, DiscountPercent: 10},
			},
		})
		require.NoError(t, err)

		require.Len(t, quotation.Items, 2)
		assert.Equal(t, "Widget", quotation.Items[0].ProductName)
		assert.Equal(t, 100.0, quotation.Items[0].UnitPrice)
		assert.Equal(t, 200.0, quotation.Items[0].LineTotal)
		// 49.99 * 3 * 0.9 = 134.973 -> 134.97
		assert.Equal(t, 134.97, quotation.Items[1].LineTotal)

		assert.Equal(t, 334.97, quotation.Subtotal)
		assert.Equal(t, 0.0, quotation.DiscountAmount)
		// 334.97 * 25% = 83.7425 -> 83.74
		assert.Equal(t, 83.74, quotation.TaxAmount)
		assert.Equal(t, 418.71, quotation.GrandTotal)
	})

	t.Run("percent discount applies before tax", func(t *testing.T) {
		quotation, err := svc.Create(ctx, &domain.CreateQuotationRequest{
			CustomerID:    customer.ID,
			DiscountType:  domain.DiscountPercent,
			DiscountValue: 10,
			TaxPercent:    25,
			Items:         []domain.QuotationItemRequest{{ProductID: widget.ID, Qty: 4}},
		})
		require.NoError(t, err)

		assert.Equal(t, 400.0, quotation.Subtotal)
		assert.Equal(t, 40.0, quotation.DiscountAmount)
		assert.Equal(t, 90.0, quotation.TaxAmount)
		assert.Equal(t, 450.0, quotation.GrandTotal)
	})

	t.Run("flat discount", func(t *testing.T) {
		quotation, err := svc.Create(ctx, &domain.CreateQuotationRequest{
			CustomerID:    customer.ID,
			DiscountType:  domain.DiscountFlat,
			DiscountValue: 25.5,
			Items:         []domain.QuotationItemRequest{{ProductID: widget.ID, Qty: 1}},
		})
		require.NoError(t, err)

		assert.Equal(t, 25.5, quotation.DiscountAmount)
		assert.Equal(t, 74.5, quotation.GrandTotal)
	})

	t.Run("catalogue edits never change an issued quotation", func(t *testing.T) {
		quotation, err := svc.Create(ctx, &domain.CreateQuotationRequest{
			CustomerID: customer.ID,
			Items:      []domain.QuotationItemRequest{{ProductID: widget.ID, Qty: 1}},
		})
		require.NoError(t, err)

		require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", widget.ID).
			Updates(map[string]interface{}{"name": "Widget v2", "price": 999}).Error)

		reread, err := svc.GetByID(ctx, quotation.ID)
		require.NoError(t, err)
		assert.Equal(t, "Widget", reread.Items[0].ProductName)
		assert.Equal(t, 100.0, reread.Items[0].UnitPrice)

		// Restore for the sibling subtests.
		require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", widget.ID).
			Updates(map[string]interface{}{"name": "Widget", "price": 100}).Error)
	})

	t.Run("flat discount exceeding the subtotal fails", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateQuotationRequest{
			CustomerID:    customer.ID,
			DiscountType:  domain.DiscountFlat,
			DiscountValue: 500,
			Items:         []domain.QuotationItemRequest{{ProductID: widget.ID, Qty: 1}},
		})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("percent discount over 100 fails", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateQuotationRequest{
			CustomerID:    customer.ID,
			DiscountType:  domain.DiscountPercent,
			DiscountValue: 110,
			Items:         []domain.QuotationItemRequest{{ProductID: widget.ID, Qty: 1}},
		})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("unknown product fails", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateQuotationRequest{
			CustomerID: customer.ID,
			Items:      []domain.QuotationItemRequest{{ProductID: 99999, Qty: 1}},
		})
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestQuotationService_Access(t *testing.T) {
	db := setupTestDB(t)
	svc := newQuotationService(db)
	manager := seedUser(t, db, "Manager QA", domain.RoleManager)
	salesA := seedUser(t, db, "Sales QA A", domain.RoleSales)
	salesB := seedUser(t, db, "Sales QA B", domain.RoleSales)
	product := seedProduct(t, db, "Thing", 10)

	custA := seedCustomer(t, db, "QA Cust A", &salesA.ID)
	custB := seedCustomer(t, db, "QA Cust B", &salesB.ID)

	mine, err := svc.Create(ctxFor(salesA), &domain.CreateQuotationRequest{
		CustomerID: custA.ID,
		Items:      []domain.QuotationItemRequest{{ProductID: product.ID, Qty: 1}},
	})
	require.NoError(t, err)

	t.Run("sales blocked on a foreign customer", func(t *testing.T) {
		_, err := svc.Create(ctxFor(salesA), &domain.CreateQuotationRequest{
			CustomerID: custB.ID,
			Items:      []domain.QuotationItemRequest{{ProductID: product.ID, Qty: 1}},
		})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("sales read only their own quotations", func(t *testing.T) {
		_, err := svc.GetByID(ctxFor(salesB), mine.ID)
		assert.ErrorIs(t, err, service.ErrAccessDenied)

		list, err := svc.List(ctxFor(salesA), nil, 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, list.Total)
	})

	t.Run("manager reads everything", func(t *testing.T) {
		quotation, err := svc.GetByID(ctxFor(manager), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, "QA Cust A", quotation.CustomerName)
	})
}

func TestQuotationService_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := newQuotationService(db)
	admin := seedUser(t, db, "Admin QS", domain.RoleAdmin)
	customer := seedCustomer(t, db, "QS Customer", nil)
	product := seedProduct(t, db, "Item", 10)
	ctx := ctxFor(admin)

	newQuotation := func(t *testing.T) *domain.QuotationDTO {
		quotation, err := svc.Create(ctx, &domain.CreateQuotationRequest{
			CustomerID: customer.ID,
			Items:      []domain.QuotationItemRequest{{ProductID: product.ID, Qty: 1}},
		})
		require.NoError(t, err)
		return quotation
	}

	t.Run("draft to sent to accepted", func(t *testing.T) {
		quotation := newQuotation(t)

		sent, err := svc.UpdateStatus(ctx, quotation.ID, domain.QuotationStatusSent)
		require.NoError(t, err)
		assert.Equal(t, domain.QuotationStatusSent, sent.Status)

		accepted, err := svc.UpdateStatus(ctx, quotation.ID, domain.QuotationStatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, domain.QuotationStatusAccepted, accepted.Status)
	})

	t.Run("draft cannot jump to accepted", func(t *testing.T) {
		quotation := newQuotation(t)

		_, err := svc.UpdateStatus(ctx, quotation.ID, domain.QuotationStatusAccepted)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("accepted is terminal", func(t *testing.T) {
		quotation := newQuotation(t)

		_, err := svc.UpdateStatus(ctx, quotation.ID, domain.QuotationStatusSent)
		require.NoError(t, err)
		_, err = svc.UpdateStatus(ctx, quotation.ID, domain.QuotationStatusAccepted)
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, quotation.ID, domain.QuotationStatusRejected)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})
}
