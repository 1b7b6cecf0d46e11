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

// NoteService attaches free-text notes to customers, deals and leads.
// Visibility follows the referenced record: whoever may read the record
// may read its notes, whoever may write it may add notes.
type NoteService struct {
	noteRepo     *repository.NoteRepository
	customerRepo *repository.CustomerRepository
	dealRepo     *repository.DealRepository
	leadRepo     *repository.LeadRepository
	logger       *zap.Logger
}

// NewNoteService creates a new NoteService
func NewNoteService(
	noteRepo *repository.NoteRepository,
	customerRepo *repository.CustomerRepository,
	dealRepo *repository.DealRepository,
	leadRepo *repository.LeadRepository,
	logger *zap.Logger,
) *NoteService {
	return &NoteService{
		noteRepo:     noteRepo,
		customerRepo: customerRepo,
		dealRepo:     dealRepo,
		leadRepo:     leadRepo,
		logger:       logger,
	}
}

// Create attaches a note to an existing record the caller can write.
func (s *NoteService) Create(ctx context.Context, req *domain.CreateNoteRequest) (*domain.NoteDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	if !req.EntityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", ErrValidation, req.EntityType)
	}

	assignee, err := s.entityAssignee(ctx, req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(userCtx.Role, userCtx.UserID, assignee) {
		return nil, ErrAccessDenied
	}

	note := &domain.Note{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Note:       req.Note,
		CreatedBy:  userCtx.UserID,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	dto := mapper.ToNoteDTO(note)
	return &dto, nil
}

// ListForEntity returns the notes on one record, newest first, provided
// the caller can read that record.
func (s *NoteService) ListForEntity(ctx context.Context, entityType domain.NoteEntityType, entityID uint) ([]domain.NoteDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	if !entityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", ErrValidation, entityType)
	}

	assignee, err := s.entityAssignee(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if !policy.CanRead(userCtx.Role, userCtx.UserID, assignee) {
		return nil, ErrAccessDenied
	}

	notes, err := s.noteRepo.ListForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	items := make([]domain.NoteDTO, len(notes))
	for i := range notes {
		items[i] = mapper.ToNoteDTO(&notes[i])
	}
	return items, nil
}

// Delete removes a note. Admins and managers delete any note, others
// only their own.
func (s *NoteService) Delete(ctx context.Context, id uint) error {
	userCtx := auth.MustFromContext(ctx)

	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get note: %w", err)
	}

	if !policy.CanDelete(userCtx.Role) && note.CreatedBy != userCtx.UserID {
		return ErrAccessDenied
	}

	if err := s.noteRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// entityAssignee resolves the sales user responsible for the referenced
// record, which drives note visibility for restricted callers.
func (s *NoteService) entityAssignee(ctx context.Context, entityType domain.NoteEntityType, entityID uint) (*uint, error) {
	var assignee *uint
	var err error

	switch entityType {
	case domain.NoteEntityCustomer:
		var customer *domain.Customer
		if customer, err = s.customerRepo.GetByID(ctx, entityID); err == nil {
			assignee = customer.AssignedTo
		}
	case domain.NoteEntityDeal:
		var deal *domain.Deal
		if deal, err = s.dealRepo.GetByID(ctx, entityID); err == nil {
			owner := deal.OwnerID
			assignee = &owner
		}
	case domain.NoteEntityLead:
		var lead *domain.Lead
		if lead, err = s.leadRepo.GetByID(ctx, entityID); err == nil {
			assignee = lead.AssignedTo
		}
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve note target: %w", err)
	}
	return assignee, nil
}
