package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/auth"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
	"github.com/sakif/devforum/internal/slug"
	"github.com/sakif/devforum/internal/validate"
)

// AuthService coordinates sign-in and sign-up: the OAuth upsert, the
// credentials provider, and token issuance.
type AuthService struct {
	tx        repository.TxRunner
	users     repository.UserRepository
	accounts  repository.AccountRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService wires an AuthService.
func NewAuthService(
	tx repository.TxRunner,
	users repository.UserRepository,
	accounts repository.AccountRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		tx:        tx,
		users:     users,
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued JWT so the handler can set the
// cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// OAuthUserInput is the profile portion of an OAuth sign-in.
type OAuthUserInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Image    string `json:"image" validate:"omitempty,url"`
}

// SignInWithOAuthInput is the declared shape for the OAuth sign-in endpoint.
type SignInWithOAuthInput struct {
	Provider          string         `json:"provider" validate:"required,oneof=github google"`
	ProviderAccountID string         `json:"providerAccountId" validate:"required"`
	User              OAuthUserInput `json:"user" validate:"required"`
}

// SignInWithOAuth upserts a user+account pair from a completed OAuth
// exchange and issues a JWT.
//
// Inside one transaction:
//  1. Slugify the username — the slug is the stored uniqueness key, so it
//     must be computed before any lookup
//  2. Find the user by email (the cross-provider identity key); create on
//     first sign-in, otherwise write only the changed {name, image} fields —
//     an unchanged profile performs zero field updates
//  3. Find the account by (provider, providerAccountId); create on first
//     sign-in with denormalized name/image, otherwise leave it untouched
//
// One person signing in with GitHub and Google ends up with one User and
// two Accounts. The driver session is released on every path by the
// transaction runner.
func (s *AuthService) SignInWithOAuth(ctx context.Context, in SignInWithOAuthInput) (*AuthResult, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	username := slug.Make(in.User.Username)
	if username == "" {
		// Provider gave us nothing sluggable; fall back to the email local
		// part, which the email validator guarantees is non-empty.
		local, _, _ := strings.Cut(in.User.Email, "@")
		username = slug.Make(local)
	}
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username cannot be slugified")
	}

	var user *model.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByEmail(ctx, in.User.Email)
		switch {
		case err == nil:
			// Existing user: minimal diff of the mutable profile fields.
			fields := map[string]any{}
			if in.User.Name != "" && in.User.Name != user.Name {
				fields["name"] = in.User.Name
				user.Name = in.User.Name
			}
			if in.User.Image != "" && in.User.Image != user.Image {
				fields["image"] = in.User.Image
				user.Image = in.User.Image
			}
			if err := s.users.UpdateFields(ctx, user.ID, fields); err != nil {
				return err
			}
		case errors.Is(err, apperror.ErrNotFound):
			user = &model.User{
				Name:     in.User.Name,
				Username: username,
				Email:    in.User.Email,
				Image:    in.User.Image,
			}
			if err := s.users.Insert(ctx, user); err != nil {
				return err
			}
		default:
			return err
		}

		_, err = s.accounts.GetByProvider(ctx, in.Provider, in.ProviderAccountID)
		switch {
		case err == nil:
			// Existing account: never overwritten by a sign-in.
			return nil
		case errors.Is(err, apperror.ErrNotFound):
			return s.accounts.Insert(ctx, &model.Account{
				UserID:            user.ID,
				Name:              in.User.Name,
				Image:             in.User.Image,
				Provider:          in.Provider,
				ProviderAccountID: in.ProviderAccountID,
			})
		default:
			return err
		}
	})
	if err != nil {
		s.logger.Error("OAuth sign-in failed",
			slog.String("provider", in.Provider),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("signing in with %s: %w", in.Provider, err)
	}

	token, err := s.tokens.Generate(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID.Hex(), err)
	}

	s.logger.Info("user signed in via OAuth",
		slog.String("userID", user.ID.Hex()),
		slog.String("provider", in.Provider),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// SignUpInput is the declared shape for credentials sign-up.
type SignUpInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignUp creates a user and its credentials account in one transaction.
// The account stores the bcrypt hash; the user document never sees it.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	username := slug.Make(in.Username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username cannot be slugified")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("signing up: %w", err)
	}

	user := &model.User{
		Name:     in.Name,
		Username: username,
		Email:    in.Email,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
			return apperror.Conflict("user", fmt.Sprintf("email %s", in.Email))
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		if err := s.users.Insert(ctx, user); err != nil {
			return err
		}

		return s.accounts.Insert(ctx, &model.Account{
			UserID:            user.ID,
			Name:              in.Name,
			Provider:          model.ProviderCredentials,
			ProviderAccountID: in.Email,
			Password:          hash,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("signing up %s: %w", in.Email, err)
	}

	token, err := s.tokens.Generate(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID.Hex(), err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID.Hex()))
	return &AuthResult{User: user, Token: token}, nil
}

// SignInInput is the declared shape for credentials sign-in.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignIn verifies credentials and issues a JWT. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*AuthResult, error) {
	if verr := validate.Struct(in); verr != nil {
		return nil, verr
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("signing in %s: %w", in.Email, err)
	}

	account, err := s.accounts.GetByProvider(ctx, model.ProviderCredentials, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("signing in %s: %w", in.Email, err)
	}

	if err := s.passwords.Verify(account.Password, in.Password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID.Hex(), err)
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID.Hex()))
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal id. Used by /api/me
// after the middleware extracts the id from the JWT subject.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := parseObjectID(id, "user")
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, oid)
}
