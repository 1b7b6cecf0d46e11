package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/mapper"
	"github.com/salesdesk/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeadSourceService manages the channels leads arrive through. Writes
// are admin/manager; every authenticated role may list them.
type LeadSourceService struct {
	sourceRepo *repository.LeadSourceRepository
	logger     *zap.Logger
}

// NewLeadSourceService creates a new LeadSourceService
func NewLeadSourceService(sourceRepo *repository.LeadSourceRepository, logger *zap.Logger) *LeadSourceService {
	return &LeadSourceService{sourceRepo: sourceRepo, logger: logger}
}

// Create adds a source. Duplicate names conflict.
func (s *LeadSourceService) Create(ctx context.Context, req *domain.CreateLeadSourceRequest) (*domain.LeadSourceDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return nil, ErrAccessDenied
	}

	if _, err := s.sourceRepo.GetByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: source %q already exists", ErrConflict, req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check source name: %w", err)
	}

	status := req.Status
	if status == "" {
		status = domain.LeadSourceActive
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	source := &domain.LeadSource{Name: req.Name, Status: status}
	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create lead source: %w", err)
	}

	dto := mapper.ToLeadSourceDTO(source)
	return &dto, nil
}

// List returns all sources.
func (s *LeadSourceService) List(ctx context.Context) ([]domain.LeadSourceDTO, error) {
	sources, err := s.sourceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead sources: %w", err)
	}

	items := make([]domain.LeadSourceDTO, len(sources))
	for i := range sources {
		items[i] = mapper.ToLeadSourceDTO(&sources[i])
	}
	return items, nil
}

// Update renames or re-statuses a source. Admin and manager only.
func (s *LeadSourceService) Update(ctx context.Context, id uint, req *domain.UpdateLeadSourceRequest) (*domain.LeadSourceDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return nil, ErrAccessDenied
	}

	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead source: %w", err)
	}

	if req.Name != nil && *req.Name != source.Name {
		if _, err := s.sourceRepo.GetByName(ctx, *req.Name); err == nil {
			return nil, fmt.Errorf("%w: source %q already exists", ErrConflict, *req.Name)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check source name: %w", err)
		}
		source.Name = *req.Name
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		source.Status = *req.Status
	}

	if err := s.sourceRepo.Update(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to update lead source: %w", err)
	}

	dto := mapper.ToLeadSourceDTO(source)
	return &dto, nil
}
