package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/mapper"
	"github.com/salesdesk/crm-api/internal/policy"
	"github.com/salesdesk/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuotationService builds priced offer documents. Product names and
// prices are snapshotted onto the lines at creation time, so later
// catalogue edits never change an issued quotation. The quotation number
// comes from a per-year sequence inside the same transaction that
// inserts the document.
type QuotationService struct {
	quotationRepo *repository.QuotationRepository
	sequenceRepo  *repository.NumberSequenceRepository
	customerRepo  *repository.CustomerRepository
	productRepo   *repository.ProductRepository
	assignment    *AssignmentValidator
	logger        *zap.Logger
	db            *gorm.DB
}

// NewQuotationService creates a new QuotationService
func NewQuotationService(
	quotationRepo *repository.QuotationRepository,
	sequenceRepo *repository.NumberSequenceRepository,
	customerRepo *repository.CustomerRepository,
	productRepo *repository.ProductRepository,
	assignment *AssignmentValidator,
	logger *zap.Logger,
	db *gorm.DB,
) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		sequenceRepo:  sequenceRepo,
		customerRepo:  customerRepo,
		productRepo:   productRepo,
		assignment:    assignment,
		logger:        logger,
		db:            db,
	}
}

// Create prices and numbers a quotation in one transaction.
func (s *QuotationService) Create(ctx context.Context, req *domain.CreateQuotationRequest) (*domain.QuotationDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	if err := s.assignment.RequireDependentAccess(userCtx.Role, userCtx.UserID, customer); err != nil {
		return nil, err
	}

	discountType := req.DiscountType
	if discountType == "" {
		discountType = domain.DiscountNone
	}
	if !discountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrValidation, discountType)
	}
	if discountType == domain.DiscountPercent && req.DiscountValue > 100 {
		return nil, fmt.Errorf("%w: percent discount cannot exceed 100", ErrValidation)
	}

	quotationDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.QuotationDate != "" {
		parsed, err := time.Parse(domain.DateLayout, req.QuotationDate)
		if err != nil {
			return nil, fmt.Errorf("%w: quotation_date must be YYYY-MM-DD", ErrValidation)
		}
		quotationDate = parsed
	}
	validUntil, err := parseOptionalDateValue(req.ValidUntil)
	if err != nil {
		return nil, err
	}

	items, subtotal, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	discountAmount := 0.0
	switch discountType {
	case domain.DiscountPercent:
		discountAmount = round2(subtotal * req.DiscountValue / 100)
	case domain.DiscountFlat:
		discountAmount = round2(req.DiscountValue)
	}
	if discountAmount > subtotal {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", ErrValidation)
	}

	taxable := subtotal - discountAmount
	taxAmount := round2(taxable * req.TaxPercent / 100)

	quotation := &domain.Quotation{
		CustomerID:     customer.ID,
		QuotationDate:  quotationDate,
		ValidUntil:     validUntil,
		DiscountType:   discountType,
		DiscountValue:  req.DiscountValue,
		TaxPercent:     req.TaxPercent,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		GrandTotal:     round2(taxable + taxAmount),
		Status:         domain.QuotationStatusDraft,
		CreatedBy:      userCtx.UserID,
		Items:          items,
	}

	year := quotationDate.Year()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.sequenceRepo.NextNumber(tx, year)
		if err != nil {
			return err
		}
		quotation.QuotationNo = fmt.Sprintf("QT-%d-%04d", year, seq)
		return tx.Create(quotation).Error
	})
	if err != nil {
		s.logger.Error("quotation create transaction rolled back", zap.Error(err))
		return nil, ErrTransactionFailed
	}

	s.logger.Info("quotation created",
		zap.Uint("quotation_id", quotation.ID),
		zap.String("quotation_no", quotation.QuotationNo),
		zap.Uint("customer_id", customer.ID))

	dto := s.toDTO(ctx, quotation)
	return &dto, nil
}

// GetByID returns a quotation with its lines; sales only see their own.
func (s *QuotationService) GetByID(ctx context.Context, id uint) (*domain.QuotationDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	quotation, err := s.getQuotation(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanRead(userCtx.Role, userCtx.UserID, &quotation.CreatedBy) {
		return nil, ErrAccessDenied
	}

	dto := s.toDTO(ctx, quotation)
	return &dto, nil
}

// List returns quotations visible to the caller.
func (s *QuotationService) List(ctx context.Context, customerID *uint, page, pageSize int) (*domain.ListResponse[domain.QuotationDTO], error) {
	userCtx := auth.MustFromContext(ctx)
	scope := policy.ScopeFor(userCtx.Role, userCtx.UserID)

	quotations, total, err := s.quotationRepo.List(ctx, scope, customerID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	items := make([]domain.QuotationDTO, len(quotations))
	for i := range quotations {
		items[i] = s.toDTO(ctx, &quotations[i])
	}

	return &domain.ListResponse[domain.QuotationDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// UpdateStatus moves a quotation through draft, sent, accepted and
// rejected. Accepted and rejected are terminal.
func (s *QuotationService) UpdateStatus(ctx context.Context, id uint, status domain.QuotationStatus) (*domain.QuotationDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	quotation, err := s.getQuotation(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanWrite(userCtx.Role, userCtx.UserID, &quotation.CreatedBy) {
		return nil, ErrAccessDenied
	}

	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if !quotation.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, quotation.Status, status)
	}

	quotation.Status = status
	if err := s.quotationRepo.Update(ctx, quotation); err != nil {
		return nil, fmt.Errorf("failed to update quotation: %w", err)
	}

	dto := s.toDTO(ctx, quotation)
	return &dto, nil
}

// buildItems snapshots product name and price onto each line and sums
// the subtotal. Line order follows the request.
func (s *QuotationService) buildItems(ctx context.Context, reqs []domain.QuotationItemRequest) ([]domain.QuotationItem, float64, error) {
	items := make([]domain.QuotationItem, 0, len(reqs))
	subtotal := 0.0

	for i, line := range reqs {
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, fmt.Errorf("%w: product %d does not exist", ErrValidation, line.ProductID)
			}
			return nil, 0, fmt.Errorf("failed to get product: %w", err)
		}

		lineTotal := round2(product.Price * float64(line.Qty) * (1 - line.DiscountPercent/100))
		items = append(items, domain.QuotationItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			UnitPrice:       product.Price,
			Qty:             line.Qty,
			DiscountPercent: line.DiscountPercent,
			LineTotal:       lineTotal,
			Position:        i,
		})
		subtotal += lineTotal
	}

	return items, round2(subtotal), nil
}

func (s *QuotationService) getQuotation(ctx context.Context, id uint) (*domain.Quotation, error) {
	quotation, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	return quotation, nil
}

func (s *QuotationService) toDTO(ctx context.Context, quotation *domain.Quotation) domain.QuotationDTO {
	customerName := ""
	if customer, err := s.customerRepo.GetByID(ctx, quotation.CustomerID); err == nil {
		customerName = customer.Name
	}
	return mapper.ToQuotationDTO(quotation, customerName)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
