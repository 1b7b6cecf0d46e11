package repository

import (
	"context"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/policy"
	"gorm.io/gorm"
)

// DealFilters are the optional list filters for active deals.
type DealFilters struct {
	Stage      *domain.DealStage
	CustomerID *uint
	OwnerID    *uint
}

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	return r.db.WithContext(ctx).Create(deal).Error
}

func (r *DealRepository) GetByID(ctx context.Context, id uint) (*domain.Deal, error) {
	var deal domain.Deal
	err := r.db.WithContext(ctx).First(&deal, id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *DealRepository) Update(ctx context.Context, deal *domain.Deal) error {
	return r.db.WithContext(ctx).Save(deal).Error
}

func (r *DealRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Deal{}, id).Error
}

// List scopes by owner for restricted callers before retrieval.
func (r *DealRepository) List(ctx context.Context, scope policy.Scope, filters DealFilters, page, pageSize int) ([]domain.Deal, int64, error) {
	var deals []domain.Deal
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Deal{})
	if scope.Restricted {
		query = query.Where("owner_id = ?", scope.UserID)
	}
	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&deals).Error

	return deals, total, err
}

// HasOpenDealForCustomer reports whether the customer already has a deal
// in an open stage. The partial unique index backs this check under
// concurrency; this query exists to fail fast with a clean error.
func (r *DealRepository) HasOpenDealForCustomer(ctx context.Context, customerID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count > 0, err
}
