package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/mapper"
	"github.com/salesdesk/crm-api/internal/policy"
	"github.com/salesdesk/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CustomerService handles customer CRUD with phone/email uniqueness and
// assignment rules.
type CustomerService struct {
	customerRepo *repository.CustomerRepository
	userRepo     *repository.UserRepository
	assignment   *AssignmentValidator
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo *repository.CustomerRepository,
	userRepo *repository.UserRepository,
	assignment *AssignmentValidator,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		userRepo:     userRepo,
		assignment:   assignment,
		logger:       logger,
	}
}

// Create inserts a customer. Duplicate non-empty phone or email fails
// with a conflict before any write.
func (s *CustomerService) Create(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.CustomerDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager, domain.RoleSales) {
		return nil, ErrAccessDenied
	}

	assignedTo := req.AssignedTo
	if userCtx.IsSales() {
		// Sales-created customers always land on the creator.
		id := userCtx.UserID
		assignedTo = &id
	} else if err := s.assignment.ValidateAssignee(ctx, assignedTo); err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		Name:       req.Name,
		SourceID:   req.SourceID,
		AssignedTo: assignedTo,
	}

	phone := domain.NormalizePhone(req.Phone)
	if phone != "" {
		if taken, err := s.customerRepo.PhoneExists(ctx, phone, 0); err != nil {
			return nil, fmt.Errorf("failed to check phone uniqueness: %w", err)
		} else if taken {
			return nil, fmt.Errorf("%w: phone %s already in use", ErrConflict, phone)
		}
		customer.Phone = &phone
	}
	if req.Email != "" {
		if taken, err := s.customerRepo.EmailExists(ctx, req.Email, 0); err != nil {
			return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
		} else if taken {
			return nil, fmt.Errorf("%w: email %s already in use", ErrConflict, req.Email)
		}
		email := req.Email
		customer.Email = &email
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	dto := s.toDTO(ctx, customer)
	return &dto, nil
}

// Import runs already-parsed CSV rows through the creation path one by
// one, collecting per-row failures instead of aborting the batch.
func (s *CustomerService) Import(ctx context.Context, req *domain.ImportCustomersRequest) (*domain.ImportCustomersResultDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return nil, ErrAccessDenied
	}

	result := &domain.ImportCustomersResultDTO{}
	for i := range req.Rows {
		if _, err := s.Create(ctx, &req.Rows[i]); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Created++
	}

	s.logger.Info("customer import finished",
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed))

	return result, nil
}

// GetByID returns a customer, applying ownership visibility for sales.
func (s *CustomerService) GetByID(ctx context.Context, id uint) (*domain.CustomerDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	customer, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanRead(userCtx.Role, userCtx.UserID, customer.AssignedTo) {
		return nil, ErrAccessDenied
	}

	dto := s.toDTO(ctx, customer)
	return &dto, nil
}

// List returns customers visible to the caller.
func (s *CustomerService) List(ctx context.Context, filters repository.CustomerFilters, page, pageSize int) (*domain.ListResponse[domain.CustomerDTO], error) {
	userCtx := auth.MustFromContext(ctx)
	scope := policy.ScopeFor(userCtx.Role, userCtx.UserID)

	customers, total, err := s.customerRepo.List(ctx, scope, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	items := make([]domain.CustomerDTO, len(customers))
	for i := range customers {
		items[i] = s.toDTO(ctx, &customers[i])
	}

	return &domain.ListResponse[domain.CustomerDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Update applies partial field changes, re-checking uniqueness for
// changed phone or email.
func (s *CustomerService) Update(ctx context.Context, id uint, req *domain.UpdateCustomerRequest) (*domain.CustomerDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	customer, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanWrite(userCtx.Role, userCtx.UserID, customer.AssignedTo) {
		return nil, ErrAccessDenied
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.SourceID != nil {
		customer.SourceID = req.SourceID
	}
	if req.Phone != nil {
		phone := domain.NormalizePhone(*req.Phone)
		if phone == "" {
			customer.Phone = nil
		} else {
			if taken, err := s.customerRepo.PhoneExists(ctx, phone, customer.ID); err != nil {
				return nil, fmt.Errorf("failed to check phone uniqueness: %w", err)
			} else if taken {
				return nil, fmt.Errorf("%w: phone %s already in use", ErrConflict, phone)
			}
			customer.Phone = &phone
		}
	}
	if req.Email != nil {
		if *req.Email == "" {
			customer.Email = nil
		} else {
			if taken, err := s.customerRepo.EmailExists(ctx, *req.Email, customer.ID); err != nil {
				return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
			} else if taken {
				return nil, fmt.Errorf("%w: email %s already in use", ErrConflict, *req.Email)
			}
			email := *req.Email
			customer.Email = &email
		}
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	dto := s.toDTO(ctx, customer)
	return &dto, nil
}

// Assign sets the assigned sales user. Admin and manager only.
func (s *CustomerService) Assign(ctx context.Context, id uint, assignee uint) (*domain.CustomerDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !policy.CanAssign(userCtx.Role) {
		return nil, ErrAccessDenied
	}

	customer, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.assignment.ValidateRequiredAssignee(ctx, assignee); err != nil {
		return nil, err
	}

	customer.AssignedTo = &assignee
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to assign customer: %w", err)
	}

	s.logger.Info("customer assigned",
		zap.Uint("customer_id", customer.ID),
		zap.Uint("assigned_to", assignee),
		zap.String("assigned_by", userCtx.UserIDString()))

	dto := s.toDTO(ctx, customer)
	return &dto, nil
}

// Delete removes a customer. Admin and manager only.
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	userCtx := auth.MustFromContext(ctx)
	if !policy.CanDelete(userCtx.Role) {
		return ErrAccessDenied
	}

	if _, err := s.getCustomer(ctx, id); err != nil {
		return err
	}

	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

func (s *CustomerService) getCustomer(ctx context.Context, id uint) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) toDTO(ctx context.Context, customer *domain.Customer) domain.CustomerDTO {
	assigneeName := ""
	if customer.AssignedTo != nil {
		if names, err := s.userRepo.NamesByIDs(ctx, []uint{*customer.AssignedTo}); err == nil {
			assigneeName = names[*customer.AssignedTo]
		}
	}
	return mapper.ToCustomerDTO(customer, assigneeName)
}
