package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/policy"
	"github.com/salesdesk/crm-api/internal/repository"
	"gorm.io/gorm"
)

// AssignmentValidator is the shared check behind every assigned_to,
// owner and employee_id write: the target must be an existing user with
// role sales. Leads and customers may also stay unassigned.
type AssignmentValidator struct {
	userRepo *repository.UserRepository
}

// NewAssignmentValidator creates a new AssignmentValidator
func NewAssignmentValidator(userRepo *repository.UserRepository) *AssignmentValidator {
	return &AssignmentValidator{userRepo: userRepo}
}

// ValidateAssignee confirms the id references a sales user. A nil id is
// legal and means the record stays unassigned.
func (v *AssignmentValidator) ValidateAssignee(ctx context.Context, assignee *uint) error {
	if assignee == nil {
		return nil
	}
	return v.ValidateRequiredAssignee(ctx, *assignee)
}

// ValidateRequiredAssignee confirms the id references a sales user.
func (v *AssignmentValidator) ValidateRequiredAssignee(ctx context.Context, assignee uint) error {
	if _, err := v.userRepo.GetSalesUser(ctx, assignee); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", ErrInvalidAssignee, assignee)
		}
		return fmt.Errorf("failed to validate assignee: %w", err)
	}
	return nil
}

// RequireDependentAccess enforces the rule that sales users may only
// attach dependent records (deals, followups, notes) to customers
// assigned to themselves; an unassigned customer blocks them entirely.
func (v *AssignmentValidator) RequireDependentAccess(role domain.Role, callerID uint, customer *domain.Customer) error {
	if !policy.CanCreateDependent(role, callerID, customer.AssignedTo) {
		return ErrAccessDenied
	}
	return nil
}
