package repository

import (
	"context"
	"strings"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/policy"
	"gorm.io/gorm"
)

// CustomerFilters are the optional list filters for customers.
type CustomerFilters struct {
	AssignedTo *uint
	SourceID   *uint
	Search     string
}

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uint) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.WithContext(ctx).First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *CustomerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Customer{}, id).Error
}

func (r *CustomerRepository) List(ctx context.Context, scope policy.Scope, filters CustomerFilters, page, pageSize int) ([]domain.Customer, int64, error) {
	var customers []domain.Customer
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Customer{})
	if scope.Restricted {
		query = query.Where("assigned_to = ?", scope.UserID)
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

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&customers).Error

	return customers, total, err
}

// GetByLeadID finds the customer a lead's contacted transition produced,
// if any. Used to keep that transition idempotent.
func (r *CustomerRepository) GetByLeadID(tx *gorm.DB, leadID uint) (*domain.Customer, error) {
	var customer domain.Customer
	err := tx.Where("created_from_lead_id = ?", leadID).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByPhone looks a customer up by normalized phone.
func (r *CustomerRepository) GetByPhone(tx *gorm.DB, phone string) (*domain.Customer, error) {
	var customer domain.Customer
	err := tx.Where("phone = ?", phone).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByEmail looks a customer up by email.
func (r *CustomerRepository) GetByEmail(tx *gorm.DB, email string) (*domain.Customer, error) {
	var customer domain.Customer
	err := tx.Where("email = ?", email).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// PhoneExists reports whether another customer already holds the phone.
func (r *CustomerRepository) PhoneExists(ctx context.Context, phone string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Customer{}).
		Where("phone = ? AND id <> ?", phone, excludeID).
		Count(&count).Error
	return count > 0, err
}

// EmailExists reports whether another customer already holds the email.
func (r *CustomerRepository) EmailExists(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Customer{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	return count > 0, err
}
