package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/auth"
	"github.com/sakif/devforum/internal/model"
)

type authFixture struct {
	svc      *AuthService
	tx       *memTx
	users    *memUsers
	accounts *memAccounts
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)

	f := &authFixture{
		tx:       &memTx{},
		users:    newMemUsers(),
		accounts: newMemAccounts(),
	}
	f.svc = NewAuthService(
		f.tx, f.users, f.accounts,
		tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger(),
	)
	return f
}

func githubSignIn() SignInWithOAuthInput {
	return SignInWithOAuthInput{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		User: OAuthUserInput{
			Name:     "Máté König",
			Username: "Máté König",
			Email:    "mate@example.com",
			Image:    "https://avatars.example.com/mate.png",
		},
	}
}

func TestSignInWithOAuthFirstTime(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.SignInWithOAuth(context.Background(), githubSignIn())
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.NotEmpty(t, res.Token)

	assert.Equal(t, "mate-konig", res.User.Username, "username is stored slugified")
	assert.Equal(t, "mate@example.com", res.User.Email)
	assert.Equal(t, 1, f.users.Inserts)
	assert.Equal(t, 1, f.accounts.Inserts)

	account, err := f.accounts.GetByProvider(context.Background(), model.ProviderGitHub, "12345")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, account.UserID)
}

func TestSignInWithOAuthRepeatIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)

	first, err := f.svc.SignInWithOAuth(context.Background(), githubSignIn())
	require.NoError(t, err)

	// Same person, same provider, unchanged profile: no new records and no
	// field updates.
	second, err := f.svc.SignInWithOAuth(context.Background(), githubSignIn())
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 1, f.users.Inserts)
	assert.Equal(t, 1, f.accounts.Inserts)
	assert.Zero(t, f.users.FieldUpdates)
}

func TestSignInWithOAuthSyncsChangedProfile(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.SignInWithOAuth(context.Background(), githubSignIn())
	require.NoError(t, err)

	in := githubSignIn()
	in.User.Name = "Máté K."
	res, err := f.svc.SignInWithOAuth(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Máté K.", res.User.Name)
	assert.Equal(t, 1, f.users.FieldUpdates)

	stored, err := f.users.GetByID(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Máté K.", stored.Name)
	assert.Equal(t, "mate-konig", stored.Username, "username never resyncs")
}

func TestSignInWithOAuthSecondProviderSharesUser(t *testing.T) {
	f := newAuthFixture(t)

	github, err := f.svc.SignInWithOAuth(context.Background(), githubSignIn())
	require.NoError(t, err)

	google := githubSignIn()
	google.Provider = model.ProviderGoogle
	google.ProviderAccountID = "google-sub-99"
	res, err := f.svc.SignInWithOAuth(context.Background(), google)
	require.NoError(t, err)

	// One person, two linked accounts.
	assert.Equal(t, github.User.ID, res.User.ID)
	assert.Equal(t, 1, f.users.Inserts)
	assert.Equal(t, 2, f.accounts.Inserts)
}

func TestSignInWithOAuthUsernameFallsBackToEmail(t *testing.T) {
	f := newAuthFixture(t)

	in := githubSignIn()
	in.User.Username = "🔥🔥🔥"
	res, err := f.svc.SignInWithOAuth(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "mate", res.User.Username)
}

func TestSignInWithOAuthValidation(t *testing.T) {
	f := newAuthFixture(t)

	in := githubSignIn()
	in.Provider = "gitlab"
	_, err := f.svc.SignInWithOAuth(context.Background(), in)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	in = githubSignIn()
	in.User.Email = "not-an-email"
	_, err = f.svc.SignInWithOAuth(context.Background(), in)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Zero(t, f.tx.Calls, "invalid input never reaches storage")
}

func TestSignUpAndSignIn(t *testing.T) {
	f := newAuthFixture(t)

	signUp := SignUpInput{
		Name:     "Sam Chen",
		Username: "Sam Chen",
		Email:    "sam@example.com",
		Password: "correct horse battery",
	}
	res, err := f.svc.SignUp(context.Background(), signUp)
	require.NoError(t, err)
	assert.Equal(t, "sam-chen", res.User.Username)
	assert.NotEmpty(t, res.Token)

	// The credentials account holds a hash, not the password.
	account, err := f.accounts.GetByProvider(context.Background(), model.ProviderCredentials, "sam@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, account.Password)
	assert.NotEqual(t, signUp.Password, account.Password)

	signedIn, err := f.svc.SignIn(context.Background(), SignInInput{
		Email:    "sam@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, signedIn.User.ID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	in := SignUpInput{
		Name:     "Sam Chen",
		Username: "samchen",
		Email:    "sam@example.com",
		Password: "correct horse battery",
	}
	_, err := f.svc.SignUp(context.Background(), in)
	require.NoError(t, err)

	in.Username = "samchen2"
	_, err = f.svc.SignUp(context.Background(), in)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 1, f.users.Inserts)
	assert.Equal(t, 1, f.accounts.Inserts)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.SignUp(context.Background(), SignUpInput{
		Name:     "Sam Chen",
		Username: "samchen",
		Email:    "sam@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	// Wrong password and unknown email surface identically.
	_, err = f.svc.SignIn(context.Background(), SignInInput{
		Email:    "sam@example.com",
		Password: "wrong password",
	})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = f.svc.SignIn(context.Background(), SignInInput{
		Email:    "nobody@example.com",
		Password: "correct horse battery",
	})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
