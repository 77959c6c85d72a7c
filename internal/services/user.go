package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gpit-system/internal/dto"
	"gpit-system/internal/entities"
	"gpit-system/internal/repositories"
	"gpit-system/pkg/constants"
	apperrors "gpit-system/pkg/errors"
	"gpit-system/pkg/utils"
)

// UserService handles account registration and the admin approval flow.
// New accounts land in pending and cannot sign in until an admin approves
// them. Deletes go through the deletion guard.
type UserService struct {
	userRepo repositories.UserRepositoryInterface
	guard    *DeletionGuardService
	logger   *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	guard *DeletionGuardService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		guard:    guard,
		logger:   logger,
	}
}

// Register creates a pending account. Role defaults to employee; the email
// uniqueness conflict comes back from the repository as ConflictError.
func (s *UserService) Register(ctx context.Context, d dto.RegisterUserDTO) (*dto.UserDTO, error) {
	role := d.Role
	if role == "" {
		role = constants.RoleEmployee
	}
	if !constants.IsValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewStorageError("hash password", err)
	}

	user := entities.User{
		Name:     strings.TrimSpace(d.Name),
		Email:    strings.ToLower(strings.TrimSpace(d.Email)),
		Password: string(hash),
		Role:     role,
		Status:   constants.UserStatusPending,
	}

	id, err := s.userRepo.CreateUser(ctx, nil, user)
	if err != nil {
		s.logger.Error("failed to register user", zap.String("email", user.Email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("user registered", zap.Uint64("id", id), zap.String("role", role))

	created, err := s.userRepo.FindUser(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	result := userEntityToDTO(*created)
	return &result, nil
}

// Approve moves a pending account to active. Already-decided accounts are
// rejected so two admins cannot silently race each other.
func (s *UserService) Approve(ctx context.Context, userID uint64) (*dto.UserDTO, error) {
	return s.decide(ctx, userID, constants.UserStatusActive)
}

// Reject marks a pending account as rejected; the row stays for audit.
func (s *UserService) Reject(ctx context.Context, userID uint64) (*dto.UserDTO, error) {
	return s.decide(ctx, userID, constants.UserStatusRejected)
}

func (s *UserService) decide(ctx context.Context, userID uint64, status string) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != constants.UserStatusPending {
		return nil, apperrors.NewConflictError("account has already been decided")
	}

	if err := s.userRepo.SetStatus(ctx, nil, userID, status); err != nil {
		return nil, err
	}

	s.logger.Info("user account decided",
		zap.Uint64("id", userID),
		zap.String("status", status),
	)

	user.Status = status
	result := userEntityToDTO(*user)
	return &result, nil
}

func (s *UserService) GetUsers(ctx context.Context, params utils.QueryParams) ([]dto.UserDTO, uint64, error) {
	users, total, err := s.userRepo.GetUsers(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, userEntityToDTO(u))
	}
	return out, total, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindUser(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	result := userEntityToDTO(*user)
	return &result, nil
}

// DeleteUser delegates to the deletion guard. Self-deletion is refused
// outright; everything else is the guard's call.
func (s *UserService) DeleteUser(ctx context.Context, actorID uint64, userID uint64) ([]dto.BlockedReason, error) {
	if actorID == userID {
		return nil, apperrors.NewValidationError("cannot delete your own account")
	}
	return s.guard.DeleteUser(ctx, userID)
}

func userEntityToDTO(u entities.User) dto.UserDTO {
	out := dto.UserDTO{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Status: u.Status,
	}
	if u.CreatedAt != nil {
		out.CreatedAt = u.CreatedAt.Format("2006-01-02, 15:04:05")
	}
	return out
}
