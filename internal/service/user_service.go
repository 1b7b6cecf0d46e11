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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService manages staff accounts. Registration is admin-only; the
// password is stored as a bcrypt hash for the credential service and
// never leaves this layer.
type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// Register creates a staff account. Admin only.
func (s *UserService) Register(ctx context.Context, req *domain.RegisterUserRequest) (*domain.UserDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasRole(domain.RoleAdmin) {
		return nil, ErrAccessDenied
	}

	if !req.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email %s already in use", ErrConflict, req.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("role", string(user.Role)))

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// GetByID returns a user profile. Non-privileged callers only see their
// own.
func (s *UserService) GetByID(ctx context.Context, id uint) (*domain.UserDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) && userCtx.UserID != id {
		return nil, ErrAccessDenied
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns all users, optionally filtered by role. Admin and
// manager only.
func (s *UserService) List(ctx context.Context, role *domain.Role) ([]domain.UserDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasAnyRole(domain.RoleAdmin, domain.RoleManager) {
		return nil, ErrAccessDenied
	}

	users, err := s.userRepo.List(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	items := make([]domain.UserDTO, len(users))
	for i := range users {
		items[i] = mapper.ToUserDTO(&users[i])
	}
	return items, nil
}

// Update edits a profile. Users edit themselves; admins edit anyone and
// are the only role that may change another user's role.
func (s *UserService) Update(ctx context.Context, id uint, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	userCtx := auth.MustFromContext(ctx)
	if !userCtx.HasRole(domain.RoleAdmin) && userCtx.UserID != id {
		return nil, ErrAccessDenied
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && *req.Role != user.Role {
		if !policy.CanChangeUserRole(userCtx.Role) {
			return nil, ErrAccessDenied
		}
		if !req.Role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *req.Role)
		}
		user.Role = *req.Role
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) getUser(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
