package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
)

func newUserService() (*UserService, *memUsers) {
	users := newMemUsers()
	return NewUserService(users, testLogger()), users
}

func TestUserCreateSlugifiesUsername(t *testing.T) {
	svc, _ := newUserService()

	u, err := svc.Create(context.Background(), CreateUserInput{
		Name:     "Máté König",
		Username: "Máté König",
		Email:    "mate@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "mate-konig", u.Username)
}

func TestUserUpdateOwnProfile(t *testing.T) {
	svc, _ := newUserService()

	u, err := svc.Create(context.Background(), CreateUserInput{
		Name:     "Sam Chen",
		Username: "samchen",
		Email:    "sam@example.com",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), u.ID.Hex(), u.ID.Hex(), UpdateProfileInput{
		Bio:      "Gopher",
		Location: "Berlin",
	})
	require.NoError(t, err)
	assert.Equal(t, "Gopher", updated.Bio)
	assert.Equal(t, "Berlin", updated.Location)
	assert.Equal(t, "Sam Chen", updated.Name, "empty fields stay unchanged")
}

func TestUserUpdateOthersProfileForbidden(t *testing.T) {
	svc, users := newUserService()

	u, err := svc.Create(context.Background(), CreateUserInput{
		Name:     "Sam Chen",
		Username: "samchen",
		Email:    "sam@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), primitive.NewObjectID().Hex(), u.ID.Hex(), UpdateProfileInput{
		Bio: "vandalized",
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Zero(t, users.Updates)
}

func TestUserDeleteOnlySelf(t *testing.T) {
	svc, _ := newUserService()

	u, err := svc.Create(context.Background(), CreateUserInput{
		Name:     "Sam Chen",
		Username: "samchen",
		Email:    "sam@example.com",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), primitive.NewObjectID().Hex(), u.ID.Hex())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), u.ID.Hex(), u.ID.Hex()))
	_, err = svc.GetByID(context.Background(), u.ID.Hex())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserGetByMalformedID(t *testing.T) {
	svc, _ := newUserService()

	_, err := svc.GetByID(context.Background(), "not-hex")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAccountDeleteOnlyOwner(t *testing.T) {
	accounts := newMemAccounts()
	svc := NewAccountService(accounts, testLogger())
	owner := primitive.NewObjectID()

	a := &model.Account{
		UserID:            owner,
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
	}
	require.NoError(t, accounts.Insert(context.Background(), a))

	err := svc.Delete(context.Background(), primitive.NewObjectID().Hex(), a.ID.Hex())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), owner.Hex(), a.ID.Hex()))
	_, err = svc.GetByID(context.Background(), a.ID.Hex())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAccountCreateSelfOnly(t *testing.T) {
	accounts := newMemAccounts()
	svc := NewAccountService(accounts, testLogger())
	owner := primitive.NewObjectID()

	in := CreateAccountInput{
		UserID:            owner.Hex(),
		Name:              "Sam Chen",
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
	}

	_, err := svc.Create(context.Background(), primitive.NewObjectID().Hex(), in)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Zero(t, accounts.Inserts)

	account, err := svc.Create(context.Background(), owner.Hex(), in)
	require.NoError(t, err)
	assert.Equal(t, owner, account.UserID)

	// Linking the same provider account twice conflicts.
	_, err = svc.Create(context.Background(), owner.Hex(), in)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestAccountGetByProvider(t *testing.T) {
	accounts := newMemAccounts()
	svc := NewAccountService(accounts, testLogger())

	a := &model.Account{
		UserID:            primitive.NewObjectID(),
		Provider:          model.ProviderGoogle,
		ProviderAccountID: "sub-42",
	}
	require.NoError(t, accounts.Insert(context.Background(), a))

	got, err := svc.GetByProvider(context.Background(), ProviderLookupInput{
		Provider:          model.ProviderGoogle,
		ProviderAccountID: "sub-42",
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = svc.GetByProvider(context.Background(), ProviderLookupInput{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "sub-42",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.GetByProvider(context.Background(), ProviderLookupInput{ProviderAccountID: "sub-42"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
