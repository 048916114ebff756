package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
	"github.com/sakif/devforum/internal/slug"
	"github.com/sakif/devforum/internal/validate"
)

// UserService handles the user REST surface. Plain record CRUD — no
// multi-document coordination, so no transactions here.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService wires a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// CreateUserInput is the declared shape for the user collection endpoint.
type CreateUserInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Image    string `json:"image" validate:"omitempty,url"`
}

// Create inserts a user record with a slugified username.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	username := slug.Make(in.Username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username cannot be slugified")
	}

	user := &model.User{
		Name:     strings.TrimSpace(in.Name),
		Username: username,
		Email:    in.Email,
		Image:    in.Image,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", slog.String("id", user.ID.Hex()))
	return user, nil
}

// GetByID returns one user.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := parseObjectID(id, "user")
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, oid)
}

// UpdateProfileInput is the declared shape for profile edits. Empty fields
// mean "leave unchanged".
type UpdateProfileInput struct {
	Name      string `json:"name" validate:"omitempty,max=100"`
	Bio       string `json:"bio" validate:"omitempty,max=500"`
	Image     string `json:"image" validate:"omitempty,url"`
	Location  string `json:"location" validate:"omitempty,max=100"`
	Portfolio string `json:"portfolio" validate:"omitempty,url"`
}

// Update edits a user's own profile. Callers can only edit themselves.
func (s *UserService) Update(ctx context.Context, callerID, id string, in UpdateProfileInput) (*model.User, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	caller, err := callerObjectID(callerID)
	if err != nil {
		return nil, err
	}
	oid, err := parseObjectID(id, "user")
	if err != nil {
		return nil, err
	}
	if caller != oid {
		return nil, apperror.Forbidden("users can only edit their own profile")
	}

	user, err := s.users.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		user.Name = strings.TrimSpace(in.Name)
	}
	if in.Bio != "" {
		user.Bio = in.Bio
	}
	if in.Image != "" {
		user.Image = in.Image
	}
	if in.Location != "" {
		user.Location = in.Location
	}
	if in.Portfolio != "" {
		user.Portfolio = in.Portfolio
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user %s: %w", id, err)
	}

	s.logger.Info("user updated", slog.String("id", user.ID.Hex()))
	return user, nil
}

// Delete removes a user record. Callers can only delete themselves.
// Cascade cleanup of the user's content is not performed here.
func (s *UserService) Delete(ctx context.Context, callerID, id string) error {
	caller, err := callerObjectID(callerID)
	if err != nil {
		return err
	}
	oid, err := parseObjectID(id, "user")
	if err != nil {
		return err
	}
	if caller != oid {
		return apperror.Forbidden("users can only delete their own account")
	}

	if err := s.users.Delete(ctx, oid); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("id", oid.Hex()))
	return nil
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]model.User, int64, error) {
	opts = clampListOptions(opts)
	users, total, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}
