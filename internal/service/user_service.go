package service

import (
	"context"
	"errors"

	"tutorhub/internal/cache"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"

	"gorm.io/gorm"
)

// UserService provides account business logic.
type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries editable profile fields.
type UpdateProfileInput struct {
	UserID      uint
	DisplayName string
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsers returns users, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, role models.Role, limit, offset int) ([]models.User, error) {
	users, err := s.userRepo.List(ctx, role, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// GetUserByID returns one user.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// UpdateProfile edits the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxDisplayNameLen = 60
	if in.DisplayName != "" {
		if len(in.DisplayName) > maxDisplayNameLen {
			return nil, models.NewValidationError("Display name too long (max 60 characters)")
		}
		user.DisplayName = in.DisplayName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, user.ID)
	return user, nil
}

// SetAdmin grants or revokes back-office access.
func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	user, err := s.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, user.ID)
	return user, nil
}
