package service

import (
	"context"

	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/qforge/qpgen-backend/internal/repository"
)

// UserService handles user account business logic.
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

// Create registers a new, unverified user.
func (s *UserService) Create(ctx context.Context, user *model.User) error {
	user.IsVerified = false
	return s.userRepo.Create(ctx, user)
}

// UpdateName changes a user's display name.
func (s *UserService) UpdateName(ctx context.Context, id int, name string) error {
	return s.userRepo.UpdateName(ctx, id, name)
}

// UpdatePassword replaces a user's password hash.
func (s *UserService) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return s.userRepo.UpdatePassword(ctx, id, passwordHash)
}

// MarkVerified flags an account as verified after a successful OTP check.
func (s *UserService) MarkVerified(ctx context.Context, id int) error {
	return s.userRepo.SetVerified(ctx, id)
}
