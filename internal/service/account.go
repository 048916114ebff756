package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
	"github.com/sakif/devforum/internal/validate"
)

// AccountService handles the provider-account surface. Accounts link a user
// to a sign-in method and are normally created through AuthService; this
// service covers direct record access.
type AccountService struct {
	accounts repository.AccountRepository
	logger   *slog.Logger
}

// NewAccountService wires an AccountService.
func NewAccountService(accounts repository.AccountRepository, logger *slog.Logger) *AccountService {
	return &AccountService{accounts: accounts, logger: logger}
}

// CreateAccountInput is the declared shape for direct account creation.
// Credentials accounts are created through sign-up (which hashes the
// password); this path only links external providers.
type CreateAccountInput struct {
	UserID            string `json:"userId" validate:"required"`
	Name              string `json:"name" validate:"required,max=100"`
	Image             string `json:"image" validate:"omitempty,url"`
	Provider          string `json:"provider" validate:"required,oneof=github google"`
	ProviderAccountID string `json:"providerAccountId" validate:"required"`
}

// Create links a provider account to the calling user. Callers can only
// link accounts to themselves.
func (s *AccountService) Create(ctx context.Context, callerID string, in CreateAccountInput) (*model.Account, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	caller, err := callerObjectID(callerID)
	if err != nil {
		return nil, err
	}
	userID, err := parseObjectID(in.UserID, "user")
	if err != nil {
		return nil, err
	}
	if caller != userID {
		return nil, apperror.Forbidden("accounts can only be linked to the calling user")
	}

	account := &model.Account{
		UserID:            userID,
		Name:              in.Name,
		Image:             in.Image,
		Provider:          in.Provider,
		ProviderAccountID: in.ProviderAccountID,
	}
	if err := s.accounts.Insert(ctx, account); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.Info("account linked",
		slog.String("id", account.ID.Hex()),
		slog.String("provider", account.Provider))
	return account, nil
}

// ProviderLookupInput is the declared shape for the provider lookup endpoint.
type ProviderLookupInput struct {
	Provider          string `json:"provider" validate:"required,oneof=github google credentials"`
	ProviderAccountID string `json:"providerAccountId" validate:"required"`
}

// GetByProvider resolves an account by its provider-side identifier.
func (s *AccountService) GetByProvider(ctx context.Context, in ProviderLookupInput) (*model.Account, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}
	return s.accounts.GetByProvider(ctx, in.Provider, in.ProviderAccountID)
}

// GetByID returns one account.
func (s *AccountService) GetByID(ctx context.Context, id string) (*model.Account, error) {
	oid, err := parseObjectID(id, "account")
	if err != nil {
		return nil, err
	}
	return s.accounts.GetByID(ctx, oid)
}

// Delete removes an account link. Only the owning user may unlink it.
func (s *AccountService) Delete(ctx context.Context, callerID, id string) error {
	caller, err := callerObjectID(callerID)
	if err != nil {
		return err
	}
	oid, err := parseObjectID(id, "account")
	if err != nil {
		return err
	}

	account, err := s.accounts.GetByID(ctx, oid)
	if err != nil {
		return err
	}
	if account.UserID != caller {
		return apperror.Forbidden("accounts can only be removed by their owner")
	}

	if err := s.accounts.Delete(ctx, oid); err != nil {
		return err
	}

	s.logger.Info("account deleted",
		slog.String("id", oid.Hex()),
		slog.String("provider", account.Provider))
	return nil
}

// List returns a page of accounts.
func (s *AccountService) List(ctx context.Context, opts repository.ListOptions) ([]model.Account, int64, error) {
	opts = clampListOptions(opts)
	accounts, total, err := s.accounts.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, total, nil
}
