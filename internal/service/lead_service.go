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

// registrationDedupWindow is how far back the public registration path
// looks for an earlier lead with the same phone before creating a new one.
const registrationDedupWindow = 30 * 24 * time.Hour

// LeadService drives the lead lifecycle: new, assigned, contacted,
// qualified, lost. The contacted transition syncs the customer table and
// the lost transition archives a copy; both run inside the same
// transaction as the status change itself.
type LeadService struct {
	leadRepo     *repository.LeadRepository
	leadLostRepo *repository.LeadLostRepository
	customerRepo *repository.CustomerRepository
	sourceRepo   *repository.LeadSourceRepository
	userRepo     *repository.UserRepository
	assignment   *AssignmentValidator
	logger       *zap.Logger
	db           *gorm.DB
}

// NewLeadService creates a new LeadService
func NewLeadService(
	leadRepo *repository.LeadRepository,
	leadLostRepo *repository.LeadLostRepository,
	customerRepo *repository.CustomerRepository,
	sourceRepo *repository.LeadSourceRepository,
	userRepo *repository.UserRepository,
	assignment *AssignmentValidator,
	logger *zap.Logger,
	db *gorm.DB,
) *LeadService {
	return &LeadService{
		leadRepo:     leadRepo,
		leadLostRepo: leadLostRepo,
		customerRepo: customerRepo,
		sourceRepo:   sourceRepo,
		userRepo:     userRepo,
		assignment:   assignment,
		logger:       logger,
		db:           db,
	}
}

// Register handles the public, unauthenticated registration path. A lead
// with the same normalized phone submitted within the dedup window is
// returned as a duplicate instead of creating a second row.
func (s *LeadService) Register(ctx context.Context, req *domain.RegisterLeadRequest) (*domain.LeadRegistrationResultDTO, error) {
	phone := domain.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}

	since := time.Now().Add(-registrationDedupWindow)
	existing, err := s.leadRepo.FindRecentByPhone(ctx, phone, since)
	if err == nil {
		s.logger.Info("duplicate lead registration",
			zap.Uint("lead_id", existing.ID),
			zap.String("phone", phone))
		return &domain.LeadRegistrationResultDTO{LeadID: existing.ID, Duplicate: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for duplicate lead: %w", err)
	}

	lead := &domain.Lead{
		Name:      req.Name,
		Phone:     phone,
		Email:     req.Email,
		ProductID: req.ProductID,
		Message:   req.Message,
		Status:    domain.LeadStatusNew,
	}

	if req.SourceName != "" {
		source, err := s.sourceRepo.FindOrCreateByName(ctx, req.SourceName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve lead source: %w", err)
		}
		lead.SourceID = &source.ID
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.logger.Info("lead registered",
		zap.Uint("lead_id", lead.ID),
		zap.String("phone", phone))

	return &domain.LeadRegistrationResultDTO{LeadID: lead.ID}, nil
}

// Create is the authenticated creation path used by admins and managers,
// including rows arriving from CSV import.
func (s *LeadService) Create(ctx context.Context, req *domain.CreateLeadRequest) (*domain.LeadDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return nil, ErrAccessDenied
	}

	if err := s.assignment.ValidateAssignee(ctx, req.AssignedTo); err != nil {
		return nil, err
	}

	status := domain.LeadStatusNew
	if req.AssignedTo != nil {
		status = domain.LeadStatusAssigned
	}

	lead := &domain.Lead{
		Name:       req.Name,
		Phone:      domain.NormalizePhone(req.Phone),
		Email:      req.Email,
		SourceID:   req.SourceID,
		ProductID:  req.ProductID,
		Message:    req.Message,
		Status:     status,
		AssignedTo: req.AssignedTo,
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	dto := s.toDTO(ctx, lead)
	return &dto, nil
}

// GetByID returns a lead, applying ownership visibility for sales users.
func (s *LeadService) GetByID(ctx context.Context, id uint) (*domain.LeadDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if !policy.CanRead(userCtx.Role, userCtx.UserID, lead.AssignedTo) {
		return nil, ErrAccessDenied
	}

	dto := s.toDTO(ctx, lead)
	return &dto, nil
}

// List returns leads visible to the caller. The scope is part of the
// query, not post-filtering.
func (s *LeadService) List(ctx context.Context, filters repository.LeadFilters, page, pageSize int) (*domain.ListResponse[domain.LeadDTO], error) {
	userCtx := auth.MustFromContext(ctx)
	scope := policy.ScopeFor(userCtx.Role, userCtx.UserID)

	leads, total, err := s.leadRepo.List(ctx, scope, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	items := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		items[i] = s.toDTO(ctx, &leads[i])
	}

	return &domain.ListResponse[domain.LeadDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Assign sets the assigned sales user. Only admins and managers assign;
// a lead still in status new moves to assigned.
func (s *LeadService) Assign(ctx context.Context, id uint, assignee uint) (*domain.LeadDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !policy.CanAssign(userCtx.Role) {
		return nil, ErrAccessDenied
	}

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if err := s.assignment.ValidateRequiredAssignee(ctx, assignee); err != nil {
		return nil, err
	}

	lead.AssignedTo = &assignee
	if lead.Status == domain.LeadStatusNew {
		if !lead.Status.CanTransitionTo(domain.LeadStatusAssigned) {
			return nil, ErrInvalidTransition
		}
		lead.Status = domain.LeadStatusAssigned
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to assign lead: %w", err)
	}

	s.logger.Info("lead assigned",
		zap.Uint("lead_id", lead.ID),
		zap.Uint("assigned_to", assignee),
		zap.String("assigned_by", userCtx.UserIDString()))

	dto := s.toDTO(ctx, lead)
	return &dto, nil
}

// Update applies field changes and drives status transitions. The status
// change and its side effects commit or roll back together: a failed
// customer sync also rolls back the status update itself.
func (s *LeadService) Update(ctx context.Context, id uint, req *domain.UpdateLeadRequest) (*domain.LeadUpdateResultDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if !policy.CanWrite(userCtx.Role, userCtx.UserID, lead.AssignedTo) {
		return nil, ErrAccessDenied
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		if !lead.Status.CanTransitionTo(*req.Status) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, lead.Status, *req.Status)
		}
	}

	applyLeadUpdate(lead, req)

	result := &domain.LeadUpdateResultDTO{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(lead).Error; err != nil {
			return fmt.Errorf("save lead: %w", err)
		}

		if req.Status == nil {
			return nil
		}

		switch *req.Status {
		case domain.LeadStatusContacted:
			action, customerID, err := s.syncCustomer(tx, lead)
			if err != nil {
				return err
			}
			result.CustomerAction = action
			result.CustomerID = &customerID
		case domain.LeadStatusLost:
			if err := s.archiveLost(tx, lead, req.LostReason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("lead update transaction rolled back",
			zap.Uint("lead_id", lead.ID),
			zap.Error(err))
		return nil, ErrTransactionFailed
	}

	result.Lead = s.toDTO(ctx, lead)
	return result, nil
}

// ListLost returns the lost-lead archive visible to the caller.
func (s *LeadService) ListLost(ctx context.Context, page, pageSize int) (*domain.ListResponse[domain.LeadLostDTO], error) {
	userCtx := auth.MustFromContext(ctx)
	scope := policy.ScopeFor(userCtx.Role, userCtx.UserID)

	archived, total, err := s.leadLostRepo.List(ctx, scope, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list lost leads: %w", err)
	}

	items := make([]domain.LeadLostDTO, len(archived))
	for i := range archived {
		items[i] = mapper.ToLeadLostDTO(&archived[i])
	}

	return &domain.ListResponse[domain.LeadLostDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetLostByLeadID returns the archive row for an original lead id.
func (s *LeadService) GetLostByLeadID(ctx context.Context, leadID uint) (*domain.LeadLostDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	archived, err := s.leadLostRepo.GetByOriginalLeadID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lost lead: %w", err)
	}

	if !policy.CanRead(userCtx.Role, userCtx.UserID, archived.AssignedTo) {
		return nil, ErrAccessDenied
	}

	dto := mapper.ToLeadLostDTO(archived)
	return &dto, nil
}

// syncCustomer runs the contacted-transition side effect on the given
// transaction handle:
//
//  1. a customer already created from this lead means no-op
//  2. otherwise match an existing customer by normalized phone, then
//     email, and merge the lead's non-empty fields into it
//  3. otherwise insert a new customer carrying the lead's identity
func (s *LeadService) syncCustomer(tx *gorm.DB, lead *domain.Lead) (domain.CustomerAction, uint, error) {
	existing, err := s.customerRepo.GetByLeadID(tx, lead.ID)
	if err == nil {
		return domain.CustomerActionAlreadyExists, existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, fmt.Errorf("lookup customer by lead: %w", err)
	}

	var match *domain.Customer
	if lead.Phone != "" {
		if c, err := s.customerRepo.GetByPhone(tx, lead.Phone); err == nil {
			match = c
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, fmt.Errorf("lookup customer by phone: %w", err)
		}
	}
	if match == nil && lead.Email != "" {
		if c, err := s.customerRepo.GetByEmail(tx, lead.Email); err == nil {
			match = c
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, fmt.Errorf("lookup customer by email: %w", err)
		}
	}

	if match != nil {
		mergeLeadIntoCustomer(lead, match)
		if err := tx.Save(match).Error; err != nil {
			return "", 0, fmt.Errorf("update matched customer: %w", err)
		}
		return domain.CustomerActionUpdatedExisting, match.ID, nil
	}

	customer := &domain.Customer{
		Name:              lead.Name,
		SourceID:          lead.SourceID,
		CreatedFromLeadID: &lead.ID,
		AssignedTo:        lead.AssignedTo,
	}
	if lead.Phone != "" {
		phone := lead.Phone
		customer.Phone = &phone
	}
	if lead.Email != "" {
		email := lead.Email
		customer.Email = &email
	}

	if err := tx.Create(customer).Error; err != nil {
		return "", 0, fmt.Errorf("create customer from lead: %w", err)
	}
	return domain.CustomerActionCreatedNew, customer.ID, nil
}

// archiveLost upserts the archive row for the lead. The lead row itself
// stays in place; only its status field changed.
func (s *LeadService) archiveLost(tx *gorm.DB, lead *domain.Lead, reason string) error {
	archived := &domain.LeadLost{
		OriginalLeadID: lead.ID,
		Name:           lead.Name,
		Phone:          lead.Phone,
		Email:          lead.Email,
		SourceID:       lead.SourceID,
		ProductID:      lead.ProductID,
		Message:        lead.Message,
		AssignedTo:     lead.AssignedTo,
		LostReason:     reason,
		LostAt:         time.Now().UTC(),
	}
	if err := s.leadLostRepo.Upsert(tx, archived); err != nil {
		return fmt.Errorf("archive lost lead: %w", err)
	}
	return nil
}

// mergeLeadIntoCustomer copies the lead's non-empty fields onto the
// customer. Empty lead fields never blank existing customer data. The
// lead's assignment wins so the contacted customer lands with the sales
// user working the lead; an unassigned lead leaves the customer's
// current assignee untouched rather than clearing it.
func mergeLeadIntoCustomer(lead *domain.Lead, customer *domain.Customer) {
	if lead.Name != "" {
		customer.Name = lead.Name
	}
	if lead.Phone != "" {
		phone := lead.Phone
		customer.Phone = &phone
	}
	if lead.Email != "" {
		email := lead.Email
		customer.Email = &email
	}
	if lead.SourceID != nil {
		customer.SourceID = lead.SourceID
	}
	if lead.AssignedTo != nil {
		customer.AssignedTo = lead.AssignedTo
	}
	if customer.CreatedFromLeadID == nil {
		customer.CreatedFromLeadID = &lead.ID
	}
}

func applyLeadUpdate(lead *domain.Lead, req *domain.UpdateLeadRequest) {
	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = domain.NormalizePhone(*req.Phone)
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.SourceID != nil {
		lead.SourceID = req.SourceID
	}
	if req.ProductID != nil {
		lead.ProductID = req.ProductID
	}
	if req.Message != nil {
		lead.Message = *req.Message
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
}

func (s *LeadService) toDTO(ctx context.Context, lead *domain.Lead) domain.LeadDTO {
	sourceName := ""
	if lead.SourceID != nil {
		if source, err := s.sourceRepo.GetByID(ctx, *lead.SourceID); err == nil {
			sourceName = source.Name
		}
	}
	assigneeName := ""
	if lead.AssignedTo != nil {
		if names, err := s.userRepo.NamesByIDs(ctx, []uint{*lead.AssignedTo}); err == nil {
			assigneeName = names[*lead.AssignedTo]
		}
	}
	return mapper.ToLeadDTO(lead, sourceName, assigneeName)
}
