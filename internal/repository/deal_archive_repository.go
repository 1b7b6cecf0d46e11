package repository

import (
	"context"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/policy"
	"gorm.io/gorm"
)

// DealArchiveRepository reads the won and lost archives. Archive rows are
// written only inside the close transaction in the deal service; this
// repository never mutates them.
type DealArchiveRepository struct {
	db *gorm.DB
}

func NewDealArchiveRepository(db *gorm.DB) *DealArchiveRepository {
	return &DealArchiveRepository{db: db}
}

func (r *DealArchiveRepository) ListWon(ctx context.Context, scope policy.Scope, page, pageSize int) ([]domain.DealWon, int64, error) {
	var deals []domain.DealWon
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.DealWon{})
	if scope.Restricted {
		query = query.Where("owner_id = ?", scope.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("won_at DESC").Find(&deals).Error

	return deals, total, err
}

func (r *DealArchiveRepository) GetWonByID(ctx context.Context, id uint) (*domain.DealWon, error) {
	var deal domain.DealWon
	err := r.db.WithContext(ctx).First(&deal, id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *DealArchiveRepository) ListLost(ctx context.Context, scope policy.Scope, page, pageSize int) ([]domain.DealLost, int64, error) {
	var deals []domain.DealLost
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.DealLost{})
	if scope.Restricted {
		query = query.Where("owner_id = ?", scope.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("lost_at DESC").Find(&deals).Error

	return deals, total, err
}

func (r *DealArchiveRepository) GetLostByID(ctx context.Context, id uint) (*domain.DealLost, error) {
	var deal domain.DealLost
	err := r.db.WithContext(ctx).First(&deal, id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}
