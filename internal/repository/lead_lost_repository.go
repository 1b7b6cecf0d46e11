package repository

import (
	"context"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/policy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeadLostRepository struct {
	db *gorm.DB
}

func NewLeadLostRepository(db *gorm.DB) *LeadLostRepository {
	return &LeadLostRepository{db: db}
}

// Upsert inserts or fully overwrites the archive row for the given
// original lead. Runs on the transaction handle passed in so the caller
// controls atomicity with the lead status change.
func (r *LeadLostRepository) Upsert(tx *gorm.DB, archived *domain.LeadLost) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "original_lead_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "phone", "email", "source_id", "product_id",
			"message", "assigned_to", "lost_reason", "lost_at", "updated_at",
		}),
	}).Create(archived).Error
}

func (r *LeadLostRepository) GetByOriginalLeadID(ctx context.Context, leadID uint) (*domain.LeadLost, error) {
	var archived domain.LeadLost
	err := r.db.WithContext(ctx).Where("original_lead_id = ?", leadID).First(&archived).Error
	if err != nil {
		return nil, err
	}
	return &archived, nil
}

func (r *LeadLostRepository) List(ctx context.Context, scope policy.Scope, page, pageSize int) ([]domain.LeadLost, int64, error) {
	var archived []domain.LeadLost
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.LeadLost{})
	if scope.Restricted {
		query = query.Where("assigned_to = ?", scope.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("lost_at DESC").Find(&archived).Error

	return archived, total, err
}
