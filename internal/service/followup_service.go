package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/mapper"
	"github.com/salesdesk/crm-api/internal/policy"
	"github.com/salesdesk/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FollowupService manages customer followups. A followup always belongs
// to a customer and a sales employee; for sales callers the employee is
// themselves and the customer must be assigned to them.
type FollowupService struct {
	followupRepo *repository.FollowupRepository
	customerRepo *repository.CustomerRepository
	userRepo     *repository.UserRepository
	assignment   *AssignmentValidator
	logger       *zap.Logger
}

// NewFollowupService creates a new FollowupService
func NewFollowupService(
	followupRepo *repository.FollowupRepository,
	customerRepo *repository.CustomerRepository,
	userRepo *repository.UserRepository,
	assignment *AssignmentValidator,
	logger *zap.Logger,
) *FollowupService {
	return &FollowupService{
		followupRepo: followupRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		assignment:   assignment,
		logger:       logger,
	}
}

// Create schedules a followup. Sales callers get themselves as the
// employee; admins and managers may name any sales user, defaulting to
// the customer's assignee.
func (s *FollowupService) Create(ctx context.Context, req *domain.CreateFollowupRequest) (*domain.FollowupDTO, error) {
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

	var employeeID uint
	switch {
	case userCtx.IsSales():
		employeeID = userCtx.UserID
	case req.EmployeeID != nil:
		if err := s.assignment.ValidateRequiredAssignee(ctx, *req.EmployeeID); err != nil {
			return nil, err
		}
		employeeID = *req.EmployeeID
	case customer.AssignedTo != nil:
		employeeID = *customer.AssignedTo
	default:
		return nil, fmt.Errorf("%w: employee_id is required for an unassigned customer", ErrValidation)
	}

	status := req.Status
	if status == "" {
		status = domain.FollowupStatusPending
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	nextDate, err := parseOptionalDateValue(req.NextFollowupDate)
	if err != nil {
		return nil, err
	}

	followup := &domain.Followup{
		CustomerID:       customer.ID,
		EmployeeID:       employeeID,
		Type:             req.Type,
		Notes:            req.Notes,
		NextFollowupDate: nextDate,
		Status:           status,
	}

	if err := s.followupRepo.Create(ctx, followup); err != nil {
		return nil, fmt.Errorf("failed to create followup: %w", err)
	}

	dto := s.toDTO(ctx, followup)
	return &dto, nil
}

// GetByID returns a followup; sales only see their own.
func (s *FollowupService) GetByID(ctx context.Context, id uint) (*domain.FollowupDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	followup, err := s.getFollowup(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanRead(userCtx.Role, userCtx.UserID, &followup.EmployeeID) {
		return nil, ErrAccessDenied
	}

	dto := s.toDTO(ctx, followup)
	return &dto, nil
}

// List returns followups visible to the caller.
func (s *FollowupService) List(ctx context.Context, filters repository.FollowupFilters, page, pageSize int) (*domain.ListResponse[domain.FollowupDTO], error) {
	userCtx := auth.MustFromContext(ctx)
	scope := policy.ScopeFor(userCtx.Role, userCtx.UserID)

	followups, total, err := s.followupRepo.List(ctx, scope, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list followups: %w", err)
	}

	items := make([]domain.FollowupDTO, len(followups))
	for i := range followups {
		items[i] = s.toDTO(ctx, &followups[i])
	}

	return &domain.ListResponse[domain.FollowupDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Update applies partial changes. Status moves follow the followup
// lifecycle; completed and cancelled are terminal.
func (s *FollowupService) Update(ctx context.Context, id uint, req *domain.UpdateFollowupRequest) (*domain.FollowupDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	followup, err := s.getFollowup(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanWrite(userCtx.Role, userCtx.UserID, &followup.EmployeeID) {
		return nil, ErrAccessDenied
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		if !followup.Status.CanTransitionTo(*req.Status) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, followup.Status, *req.Status)
		}
		followup.Status = *req.Status
	}
	if req.Type != nil {
		followup.Type = *req.Type
	}
	if req.Notes != nil {
		followup.Notes = *req.Notes
	}
	if req.NextFollowupDate != nil {
		if *req.NextFollowupDate == "" {
			followup.NextFollowupDate = nil
		} else {
			parsed, err := time.Parse(domain.DateLayout, *req.NextFollowupDate)
			if err != nil {
				return nil, fmt.Errorf("%w: next_followup_date must be YYYY-MM-DD", ErrValidation)
			}
			followup.NextFollowupDate = &parsed
		}
	}

	if err := s.followupRepo.Update(ctx, followup); err != nil {
		return nil, fmt.Errorf("failed to update followup: %w", err)
	}

	dto := s.toDTO(ctx, followup)
	return &dto, nil
}

// Delete removes a followup. Admin and manager only.
func (s *FollowupService) Delete(ctx context.Context, id uint) error {
	userCtx := auth.MustFromContext(ctx)
	if !policy.CanDelete(userCtx.Role) {
		return ErrAccessDenied
	}

	if _, err := s.getFollowup(ctx, id); err != nil {
		return err
	}

	if err := s.followupRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete followup: %w", err)
	}
	return nil
}

func (s *FollowupService) getFollowup(ctx context.Context, id uint) (*domain.Followup, error) {
	followup, err := s.followupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get followup: %w", err)
	}
	return followup, nil
}

func (s *FollowupService) toDTO(ctx context.Context, followup *domain.Followup) domain.FollowupDTO {
	customerName := ""
	if customer, err := s.customerRepo.GetByID(ctx, followup.CustomerID); err == nil {
		customerName = customer.Name
	}
	employeeName := ""
	if names, err := s.userRepo.NamesByIDs(ctx, []uint{followup.EmployeeID}); err == nil {
		employeeName = names[followup.EmployeeID]
	}
	return mapper.ToFollowupDTO(followup, customerName, employeeName)
}

func parseOptionalDateValue(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: dates must be YYYY-MM-DD", ErrValidation)
	}
	return &parsed, nil
}
