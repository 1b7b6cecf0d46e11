package repository

import (
	"context"
	"time"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/policy"
	"gorm.io/gorm"
)

// FollowupFilters are the optional list filters for followups.
type FollowupFilters struct {
	Status     *domain.FollowupStatus
	CustomerID *uint
	DueBefore  *time.Time
}

type FollowupRepository struct {
	db *gorm.DB
}

func NewFollowupRepository(db *gorm.DB) *FollowupRepository {
	return &FollowupRepository{db: db}
}

func (r *FollowupRepository) Create(ctx context.Context, followup *domain.Followup) error {
	return r.db.WithContext(ctx).Create(followup).Error
}

func (r *FollowupRepository) GetByID(ctx context.Context, id uint) (*domain.Followup, error) {
	var followup domain.Followup
	err := r.db.WithContext(ctx).First(&followup, id).Error
	if err != nil {
		return nil, err
	}
	return &followup, nil
}

func (r *FollowupRepository) Update(ctx context.Context, followup *domain.Followup) error {
	return r.db.WithContext(ctx).Save(followup).Error
}

func (r *FollowupRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Followup{}, id).Error
}

// List scopes by employee for restricted callers.
func (r *FollowupRepository) List(ctx context.Context, scope policy.Scope, filters FollowupFilters, page, pageSize int) ([]domain.Followup, int64, error) {
	var followups []domain.Followup
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Followup{})
	if scope.Restricted {
		query = query.Where("employee_id = ?", scope.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.DueBefore != nil {
		query = query.Where("next_followup_date < ?", *filters.DueBefore)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("next_followup_date ASC").Find(&followups).Error

	return followups, total, err
}

// ListOverdue returns pending followups whose date has passed. Used by
// the reminder job.
func (r *FollowupRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Followup, error) {
	var followups []domain.Followup
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_followup_date IS NOT NULL AND next_followup_date < ?",
			domain.FollowupStatusPending, asOf).
		Order("next_followup_date ASC").
		Find(&followups).Error
	return followups, err
}
