package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/mapper"
	"github.com/salesdesk/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductService manages the catalogue. Writes are admin/manager only;
// the public storefront listing is served without authentication and is
// limited to public products.
type ProductService struct {
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo *repository.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, logger: logger}
}

// Create adds a catalogue item with its ordered gallery.
func (s *ProductService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.ProductDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return nil, ErrAccessDenied
	}

	product := &domain.Product{
		Name:       req.Name,
		Price:      req.Price,
		CategoryID: req.CategoryID,
		Type:       req.Type,
		IsPublic:   req.IsPublic,
		MainImage:  req.MainImage,
		Gallery:    pq.StringArray(req.Gallery),
	}
	for i, img := range req.Images {
		position := img.Position
		if position == 0 {
			position = i
		}
		product.Images = append(product.Images, domain.ProductImage{
			URL:      img.URL,
			Position: position,
		})
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// GetByID returns one product with its gallery.
func (s *ProductService) GetByID(ctx context.Context, id uint) (*domain.ProductDTO, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// List returns catalogue items matching the filters.
func (s *ProductService) List(ctx context.Context, filters repository.ProductFilters, page, pageSize int) (*domain.ListResponse[domain.ProductDTO], error) {
	products, total, err := s.productRepo.List(ctx, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	items := make([]domain.ProductDTO, len(products))
	for i := range products {
		items[i] = mapper.ToProductDTO(&products[i])
	}

	return &domain.ListResponse[domain.ProductDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// ListPublic returns the unauthenticated storefront view: public
// products only, regardless of the caller's filters.
func (s *ProductService) ListPublic(ctx context.Context, filters repository.ProductFilters, page, pageSize int) (*domain.ListResponse[domain.ProductDTO], error) {
	public := true
	filters.IsPublic = &public
	return s.List(ctx, filters, page, pageSize)
}

// Update applies partial changes. A non-nil Gallery replaces the whole
// array.
func (s *ProductService) Update(ctx context.Context, id uint, req *domain.UpdateProductRequest) (*domain.ProductDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return nil, ErrAccessDenied
	}

	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.Type != nil {
		product.Type = *req.Type
	}
	if req.IsPublic != nil {
		product.IsPublic = *req.IsPublic
	}
	if req.MainImage != nil {
		product.MainImage = *req.MainImage
	}
	if req.Gallery != nil {
		product.Gallery = pq.StringArray(req.Gallery)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// Delete removes a product and its gallery rows. Admin and manager only.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return ErrAccessDenied
	}

	if _, err := s.getProduct(ctx, id); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("product deleted", zap.Uint("product_id", id))
	return nil
}

func (s *ProductService) getProduct(ctx context.Context, id uint) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}
