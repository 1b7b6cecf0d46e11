package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/mapper"
	"github.com/salesdesk/crm-api/internal/policy"
	"github.com/salesdesk/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DealService drives the deal pipeline. Closing a deal as won or lost is
// a move: the archive insert and the active-row delete commit together or
// not at all.
type DealService struct {
	dealRepo     *repository.DealRepository
	archiveRepo  *repository.DealArchiveRepository
	customerRepo *repository.CustomerRepository
	userRepo     *repository.UserRepository
	assignment   *AssignmentValidator
	logger       *zap.Logger
	db           *gorm.DB
}

// NewDealService creates a new DealService
func NewDealService(
	dealRepo *repository.DealRepository,
	archiveRepo *repository.DealArchiveRepository,
	customerRepo *repository.CustomerRepository,
	userRepo *repository.UserRepository,
	assignment *AssignmentValidator,
	logger *zap.Logger,
	db *gorm.DB,
) *DealService {
	return &DealService{
		dealRepo:     dealRepo,
		archiveRepo:  archiveRepo,
		customerRepo: customerRepo,
		userRepo:     userRepo,
		assignment:   assignment,
		logger:       logger,
		db:           db,
	}
}

// Create opens a deal for a customer. Owner resolution:
//
//   - sales callers may only create deals for customers assigned to
//     themselves, and the owner is always themselves
//   - an assigned customer forces the owner to its assignee; a supplied
//     owner that disagrees fails with an owner mismatch
//   - an unassigned customer requires an explicit sales owner
//
// A customer with an open deal rejects a second one.
func (s *DealService) Create(ctx context.Context, req *domain.CreateDealRequest) (*domain.DealDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	owner, err := s.resolveOwner(ctx, userCtx, customer, req.OwnerID)
	if err != nil {
		return nil, err
	}

	stage := req.Stage
	if stage == "" {
		stage = domain.DealStageProspect
	}
	if !stage.IsOpen() {
		return nil, fmt.Errorf("%w: deals are created in an open stage", ErrValidation)
	}

	hasOpen, err := s.dealRepo.HasOpenDealForCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open deals: %w", err)
	}
	if hasOpen {
		return nil, ErrDuplicateOpenDeal
	}

	closeDate, err := parseOptionalDate(req.ExpectedCloseDate)
	if err != nil {
		return nil, err
	}

	deal := &domain.Deal{
		Title:             req.Title,
		CustomerID:        customer.ID,
		Value:             req.Value,
		Stage:             stage,
		OwnerID:           owner,
		ExpectedCloseDate: closeDate,
	}

	if err := s.dealRepo.Create(ctx, deal); err != nil {
		// The partial unique index is the race-safe backstop for the
		// one-open-deal invariant.
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOpenDeal
		}
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	s.logger.Info("deal created",
		zap.Uint("deal_id", deal.ID),
		zap.Uint("customer_id", customer.ID),
		zap.Uint("owner_id", owner))

	dto := s.toDTO(ctx, deal)
	return &dto, nil
}

// GetByID returns an active deal, applying ownership visibility.
func (s *DealService) GetByID(ctx context.Context, id uint) (*domain.DealDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanRead(userCtx.Role, userCtx.UserID, &deal.OwnerID) {
		return nil, ErrAccessDenied
	}

	dto := s.toDTO(ctx, deal)
	return &dto, nil
}

// List returns active deals visible to the caller.
func (s *DealService) List(ctx context.Context, filters repository.DealFilters, page, pageSize int) (*domain.ListResponse[domain.DealDTO], error) {
	userCtx := auth.MustFromContext(ctx)
	scope := policy.ScopeFor(userCtx.Role, userCtx.UserID)

	deals, total, err := s.dealRepo.List(ctx, scope, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	items := make([]domain.DealDTO, len(deals))
	for i := range deals {
		items[i] = s.toDTO(ctx, &deals[i])
	}

	return &domain.ListResponse[domain.DealDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Update applies field changes and stage moves. Only the owning sales
// user updates an active deal. A move to won or lost archives the deal
// and removes the active row in one transaction.
func (s *DealService) Update(ctx context.Context, id uint, req *domain.UpdateDealRequest) (*domain.DealDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanUpdateDeal(userCtx.Role, userCtx.UserID, deal.OwnerID) {
		return nil, ErrAccessDenied
	}

	if req.Stage != nil {
		if !req.Stage.IsValid() {
			return nil, fmt.Errorf("%w: unknown stage %q", ErrValidation, *req.Stage)
		}
		if !deal.Stage.CanTransitionTo(*req.Stage) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, deal.Stage, *req.Stage)
		}
	}

	if err := applyDealUpdate(deal, req); err != nil {
		return nil, err
	}

	if req.Stage != nil && !req.Stage.IsOpen() {
		return s.close(ctx, deal, *req.Stage, req.LostReason)
	}

	if err := s.dealRepo.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	dto := s.toDTO(ctx, deal)
	return &dto, nil
}

// Delete removes an active deal. Admins and managers delete any deal,
// sales their own.
func (s *DealService) Delete(ctx context.Context, id uint) error {
	userCtx := auth.MustFromContext(ctx)

	deal, err := s.getDeal(ctx, id)
	if err != nil {
		return err
	}

	if !policy.CanDeleteDeal(userCtx.Role, userCtx.UserID, deal.OwnerID) {
		return ErrAccessDenied
	}

	if err := s.dealRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	return nil
}

// ListWon returns the won archive visible to the caller.
func (s *DealService) ListWon(ctx context.Context, page, pageSize int) (*domain.ListResponse[domain.DealWonDTO], error) {
	userCtx := auth.MustFromContext(ctx)
	scope := policy.ScopeFor(userCtx.Role, userCtx.UserID)

	deals, total, err := s.archiveRepo.ListWon(ctx, scope, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list won deals: %w", err)
	}

	items := make([]domain.DealWonDTO, len(deals))
	for i := range deals {
		items[i] = mapper.ToDealWonDTO(&deals[i])
	}

	return &domain.ListResponse[domain.DealWonDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetWonByID returns one won-archive row.
func (s *DealService) GetWonByID(ctx context.Context, id uint) (*domain.DealWonDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	deal, err := s.archiveRepo.GetWonByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get won deal: %w", err)
	}

	if !policy.CanRead(userCtx.Role, userCtx.UserID, &deal.OwnerID) {
		return nil, ErrAccessDenied
	}

	dto := mapper.ToDealWonDTO(deal)
	return &dto, nil
}

// ListLost returns the lost archive visible to the caller.
func (s *DealService) ListLost(ctx context.Context, page, pageSize int) (*domain.ListResponse[domain.DealLostDTO], error) {
	userCtx := auth.MustFromContext(ctx)
	scope := policy.ScopeFor(userCtx.Role, userCtx.UserID)

	deals, total, err := s.archiveRepo.ListLost(ctx, scope, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list lost deals: %w", err)
	}

	items := make([]domain.DealLostDTO, len(deals))
	for i := range deals {
		items[i] = mapper.ToDealLostDTO(&deals[i])
	}

	return &domain.ListResponse[domain.DealLostDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetLostByID returns one lost-archive row.
func (s *DealService) GetLostByID(ctx context.Context, id uint) (*domain.DealLostDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	deal, err := s.archiveRepo.GetLostByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lost deal: %w", err)
	}

	if !policy.CanRead(userCtx.Role, userCtx.UserID, &deal.OwnerID) {
		return nil, ErrAccessDenied
	}

	dto := mapper.ToDealLostDTO(deal)
	return &dto, nil
}

// resolveOwner decides who owns a new deal.
func (s *DealService) resolveOwner(ctx context.Context, userCtx *auth.UserContext, customer *domain.Customer, requested *uint) (uint, error) {
	if userCtx.IsSales() {
		if customer.AssignedTo == nil || *customer.AssignedTo != userCtx.UserID {
			return 0, ErrAccessDenied
		}
		if requested != nil && *requested != userCtx.UserID {
			return 0, ErrOwnerMismatch
		}
		return userCtx.UserID, nil
	}

	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return 0, ErrAccessDenied
	}

	if customer.AssignedTo != nil {
		if requested != nil && *requested != *customer.AssignedTo {
			return 0, ErrOwnerMismatch
		}
		return *customer.AssignedTo, nil
	}

	if requested == nil {
		return 0, fmt.Errorf("%w: owner is required for an unassigned customer", ErrValidation)
	}
	if err := s.assignment.ValidateRequiredAssignee(ctx, *requested); err != nil {
		return 0, err
	}
	return *requested, nil
}

// close moves the deal into its archive table and deletes the active
// row. Partial states are impossible: a failure rolls back both writes.
func (s *DealService) close(ctx context.Context, deal *domain.Deal, stage domain.DealStage, lostReason string) (*domain.DealDTO, error) {
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch stage {
		case domain.DealStageWon:
			archived := &domain.DealWon{
				OriginalDealID:    deal.ID,
				Title:             deal.Title,
				CustomerID:        deal.CustomerID,
				Value:             deal.Value,
				OwnerID:           deal.OwnerID,
				ExpectedCloseDate: deal.ExpectedCloseDate,
				DealCreatedAt:     deal.CreatedAt,
				WonAt:             now,
			}
			if err := tx.Create(archived).Error; err != nil {
				return fmt.Errorf("archive won deal: %w", err)
			}
		case domain.DealStageLost:
			archived := &domain.DealLost{
				OriginalDealID:    deal.ID,
				Title:             deal.Title,
				CustomerID:        deal.CustomerID,
				Value:             deal.Value,
				OwnerID:           deal.OwnerID,
				ExpectedCloseDate: deal.ExpectedCloseDate,
				LostReason:        lostReason,
				DealCreatedAt:     deal.CreatedAt,
				LostAt:            now,
			}
			if err := tx.Create(archived).Error; err != nil {
				return fmt.Errorf("archive lost deal: %w", err)
			}
		default:
			return fmt.Errorf("close called with open stage %s", stage)
		}

		if err := tx.Delete(&domain.Deal{}, deal.ID).Error; err != nil {
			return fmt.Errorf("delete active deal: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("deal close transaction rolled back",
			zap.Uint("deal_id", deal.ID),
			zap.String("stage", string(stage)),
			zap.Error(err))
		return nil, ErrTransactionFailed
	}

	s.logger.Info("deal closed",
		zap.Uint("deal_id", deal.ID),
		zap.String("stage", string(stage)))

	deal.Stage = stage
	dto := s.toDTO(ctx, deal)
	return &dto, nil
}

func (s *DealService) getDeal(ctx context.Context, id uint) (*domain.Deal, error) {
	deal, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return deal, nil
}

func (s *DealService) toDTO(ctx context.Context, deal *domain.Deal) domain.DealDTO {
	customerName := ""
	if customer, err := s.customerRepo.GetByID(ctx, deal.CustomerID); err == nil {
		customerName = customer.Name
	}
	ownerName := ""
	if names, err := s.userRepo.NamesByIDs(ctx, []uint{deal.OwnerID}); err == nil {
		ownerName = names[deal.OwnerID]
	}
	return mapper.ToDealDTO(deal, customerName, ownerName)
}

func applyDealUpdate(deal *domain.Deal, req *domain.UpdateDealRequest) error {
	if req.Title != nil {
		deal.Title = *req.Title
	}
	if req.Value != nil {
		deal.Value = *req.Value
	}
	if req.Stage != nil {
		deal.Stage = *req.Stage
	}
	if req.ExpectedCloseDate != nil {
		// An explicit empty string clears the date; absent preserves it.
		if *req.ExpectedCloseDate == "" {
			deal.ExpectedCloseDate = nil
		} else {
			parsed, err := time.Parse(domain.DateLayout, *req.ExpectedCloseDate)
			if err != nil {
				return fmt.Errorf("%w: expected_close_date must be YYYY-MM-DD", ErrValidation)
			}
			deal.ExpectedCloseDate = &parsed
		}
	}
	return nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(domain.DateLayout, *value)
	if err != nil {
		return nil, fmt.Errorf("%w: dates must be YYYY-MM-DD", ErrValidation)
	}
	return &parsed, nil
}

// isUniqueViolation detects unique-constraint errors from the stores in
// use (postgres in production, sqlite in tests).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
