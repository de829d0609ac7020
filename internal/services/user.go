package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user-related operations
type UserService struct {
	users  UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// List returns the active users matching q
func (s *UserService) List(ctx context.Context, q *query.Query) ([]*models.User, error) {
	users, err := s.users.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get returns an active user by ID
func (s *UserService) Get(ctx context.Context, id uuid.UUID, _ bool) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Create validates and stores a user whose password hash is already set
func (s *UserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, apperror.BadRequest("Please provide a password")
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created successfully", zap.String("user_id", created.ID.String()))
	return created, nil
}

// Update validates the merged user and saves it
func (s *UserService) Update(ctx context.Context, user *models.User) (*models.User, error) {
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// Delete removes a user permanently. Their reviews stay and keep counting
// towards tour ratings; they are listed without an author.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

// UpdateMe changes the profile fields of the current user. Passwords are
// changed through AuthService.UpdatePassword only.
func (s *UserService) UpdateMe(ctx context.Context, id uuid.UUID, req *models.ProfileUpdate) (*models.User, error) {
	if req.Password != "" || req.PasswordConfirm != "" {
		return nil, apperror.BadRequest("This route is not for password updates. Please use /update-my-password")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Photo != nil {
		user.Photo = *req.Photo
	}

	return s.Update(ctx, user)
}

// Deactivate soft-deletes a user; deactivated users disappear from every read
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	user.Active = false
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
