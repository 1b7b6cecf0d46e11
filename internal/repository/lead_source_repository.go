package repository

import (
	"context"

	"github.com/salesdesk/crm-api/internal/domain"
	"gorm.io/gorm"
)

type LeadSourceRepository struct {
	db *gorm.DB
}

func NewLeadSourceRepository(db *gorm.DB) *LeadSourceRepository {
	return &LeadSourceRepository{db: db}
}

func (r *LeadSourceRepository) Create(ctx context.Context, source *domain.LeadSource) error {
	return r.db.WithContext(ctx).Create(source).Error
}

func (r *LeadSourceRepository) GetByID(ctx context.Context, id uint) (*domain.LeadSource, error) {
	var source domain.LeadSource
	err := r.db.WithContext(ctx).First(&source, id).Error
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *LeadSourceRepository) GetByName(ctx context.Context, name string) (*domain.LeadSource, error) {
	var source domain.LeadSource
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&source).Error
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *LeadSourceRepository) Update(ctx context.Context, source *domain.LeadSource) error {
	return r.db.WithContext(ctx).Save(source).Error
}

func (r *LeadSourceRepository) List(ctx context.Context) ([]domain.LeadSource, error) {
	var sources []domain.LeadSource
	err := r.db.WithContext(ctx).Order("name ASC").Find(&sources).Error
	return sources, err
}

// FindOrCreateByName returns the source with the given name, creating an
// active one when absent. Used by the public registration path.
func (r *LeadSourceRepository) FindOrCreateByName(ctx context.Context, name string) (*domain.LeadSource, error) {
	var source domain.LeadSource
	err := r.db.WithContext(ctx).
		Where(domain.LeadSource{Name: name}).
		Attrs(domain.LeadSource{Status: domain.LeadSourceActive}).
		FirstOrCreate(&source).Error
	if err != nil {
		return nil, err
	}
	return &source, nil
}
