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

func TestProductService_Create(t *testing.T) {
	db := setupTestDB(t)
	svc := newProductService(db)
	manager := seedUser(t, db, "Manager P", domain.RoleManager)
	sales := seedUser(t, db, "Sales P", domain.RoleSales)

	t.Run("manager creates with gallery and ordered images", func(t *testing.T) {
		product, err := svc.Create(ctxFor(manager), &domain.CreateProductRequest{
			Name:      "Steel Hall",
			Price:     125000.50,
			Type:      "building",
			IsPublic:  true,
			MainImage: "https://cdn.example.com/hall.jpg",
			Gallery:   []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
			Images: []domain.ProductImageRequest{
				{URL: "https://cdn.example.com/1.jpg"},
				{URL: "https://cdn.example.com/2.jpg"},
				{URL: "https://cdn.example.com/3.jpg", Position: 7},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 125000.50, product.Price)
		assert.Len(t, product.Gallery, 2)
		require.Len(t, product.Images, 3)
		assert.Equal(t, 0, product.Images[0].Position)
		assert.Equal(t, 1, product.Images[1].Position)
		assert.Equal(t, 7, product.Images[2].Position)
	})

	t.Run("sales cannot create", func(t *testing.T) {
		_, err := svc.Create(ctxFor(sales), &domain.CreateProductRequest{Name: "Nope", Price: 1})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})
}

func TestProductService_ListPublic(t *testing.T) {
	db := setupTestDB(t)
	svc := newProductService(db)
	admin := seedUser(t, db, "Admin PL", domain.RoleAdmin)
	ctx := ctxFor(admin)

	_, err := svc.Create(ctx, &domain.CreateProductRequest{Name: "Public Item", Price: 10, IsPublic: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &domain.CreateProductRequest{Name: "Internal Item", Price: 20})
	require.NoError(t, err)

	t.Run("storefront sees only public products", func(t *testing.T) {
		// The public listing runs without authentication.
		list, err := svc.ListPublic(context.Background(), repository.ProductFilters{}, 1, 20)
		require.NoError(t, err)
		require.EqualValues(t, 1, list.Total)
		assert.Equal(t, "Public Item", list.Items[0].Name)
	})

	t.Run("hidden filter cannot leak internal products", func(t *testing.T) {
		hidden := false
		list, err := svc.ListPublic(context.Background(), repository.ProductFilters{IsPublic: &hidden}, 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, list.Total)
	})

	t.Run("authenticated list sees everything", func(t *testing.T) {
		list, err := svc.List(ctx, repository.ProductFilters{}, 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 2, list.Total)
	})
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := newProductService(db)
	admin := seedUser(t, db, "Admin PU", domain.RoleAdmin)
	sales := seedUser(t, db, "Sales PU", domain.RoleSales)
	ctx := ctxFor(admin)

	product, err := svc.Create(ctx, &domain.CreateProductRequest{
		Name:    "Editable",
		Price:   10,
		Gallery: []string{"https://cdn.example.com/old.jpg"},
	})
	require.NoError(t, err)

	t.Run("partial update replaces the gallery as a whole", func(t *testing.T) {
		updated, err := svc.Update(ctx, product.ID, &domain.UpdateProductRequest{
			Price:   float64Ptr(12.5),
			Gallery: []string{"https://cdn.example.com/new-1.jpg", "https://cdn.example.com/new-2.jpg"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Editable", updated.Name)
		assert.Equal(t, 12.5, updated.Price)
		assert.Len(t, updated.Gallery, 2)
	})

	t.Run("sales cannot update or delete", func(t *testing.T) {
		_, err := svc.Update(ctxFor(sales), product.ID, &domain.UpdateProductRequest{Price: float64Ptr(1)})
		assert.ErrorIs(t, err, service.ErrAccessDenied)

		err = svc.Delete(ctxFor(sales), product.ID)
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("admin deletes", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, product.ID))

		_, err := svc.GetByID(context.Background(), product.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
