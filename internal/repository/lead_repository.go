package repository

import (
	"context"
	"strings"
	"time"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/policy"
	"gorm.io/gorm"
)

// LeadFilters are the optional list filters for leads.
type LeadFilters struct {
	Status     *domain.LeadStatus
	AssignedTo *uint
	SourceID   *uint
	Search     string
}

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uint) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).First(&lead, id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

func (r *LeadRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Lead{}, id).Error
}

// List applies the caller's scope before retrieval so restricted callers
// never see other users' rows or counts.
func (r *LeadRepository) List(ctx context.Context, scope policy.Scope, filters LeadFilters, page, pageSize int) ([]domain.Lead, int64, error) {
	var leads []domain.Lead
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Lead{})
	query = applyLeadScope(query, scope)
	query = applyLeadFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&leads).Error

	return leads, total, err
}

// FindRecentByPhone returns the newest lead with the given normalized
// phone created after the cutoff. Used for the registration dedup window.
func (r *LeadRepository) FindRecentByPhone(ctx context.Context, phone string, since time.Time) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).
		Where("phone = ? AND created_at >= ?", phone, since).
		Order("created_at DESC").
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func applyLeadScope(query *gorm.DB, scope policy.Scope) *gorm.DB {
	if scope.Restricted {
		return query.Where("assigned_to = ?", scope.UserID)
	}
	return query
}

func applyLeadFilters(query *gorm.DB, filters LeadFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}
	if filters.SourceID != nil {
		query = query.Where("source_id = ?", *filters.SourceID)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}
	return query
}
