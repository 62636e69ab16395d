package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLocal(t *testing.T, access time.Duration) (*LocalProvider, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	p, err := NewLocalProvider(db, LocalOptions{
		Secret:        "test-secret",
		AccessExpiry:  access,
		RefreshExpiry: time.Hour,
	})
	require.NoError(t, err)
	return p, db
}

func TestLocalProviderRequiresSecret(t *testing.T) {
	_, err := NewLocalProvider(testutil.NewDB(t), LocalOptions{})
	assert.Error(t, err)
}

func TestLocalSignUpAndSignIn(t *testing.T) {
	p, db := newLocal(t, time.Hour)
	ctx := context.Background()

	account, err := p.SignUp(ctx, " Ana@Example.com", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", account.Email)

	var cred models.Credential
	require.NoError(t, db.First(&cred, "id = ?", account.ID).Error)
	assert.NotEqual(t, "segredo1", cred.PasswordHash)

	_, err = p.SignUp(ctx, "ana@example.com", "outra123")
	assert.ErrorIs(t, err, ErrAccountExists)

	signedIn, session, err := p.SignIn(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, signedIn.ID)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "bearer", session.TokenType)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}

func TestLocalSignInFailuresAreUniform(t *testing.T) {
	p, _ := newLocal(t, time.Hour)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)

	_, _, wrongPassword := p.SignIn(ctx, "ana@example.com", "errada")
	_, _, unknownEmail := p.SignIn(ctx, "ninguem@example.com", "segredo1")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLocalVerify(t *testing.T) {
	p, _ := newLocal(t, time.Hour)
	ctx := context.Background()

	account, err := p.SignUp(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)
	_, session, err := p.SignIn(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)

	verified, err := p.Verify(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, verified.ID)
	assert.Equal(t, "ana@example.com", verified.Email)

	_, err = p.Verify(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewLocalProvider(testutil.NewDB(t), LocalOptions{Secret: "another-secret", AccessExpiry: time.Hour})
	require.NoError(t, err)
	_, err = other.Verify(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "token signed with a different secret")
}

func TestLocalVerifyRejectsExpiredToken(t *testing.T) {
	p, _ := newLocal(t, -time.Minute)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)
	_, session, err := p.SignIn(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)

	_, err = p.Verify(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalSignOutRevokesSession(t *testing.T) {
	p, _ := newLocal(t, time.Hour)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)
	_, session, err := p.SignIn(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, session.AccessToken))

	_, err = p.Verify(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, p.SignOut(ctx, "garbage"), ErrInvalidToken)
}

func TestLocalRefreshRotates(t *testing.T) {
	p, _ := newLocal(t, time.Hour)
	ctx := context.Background()

	account, err := p.SignUp(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)
	_, first, err := p.SignIn(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)

	refreshed, second, err := p.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, refreshed.ID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, _, err = p.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh tokens are single use")

	_, err = p.Verify(ctx, second.AccessToken)
	assert.NoError(t, err)
}

func TestLocalConcurrentRefreshMintsOneSession(t *testing.T) {
	p, db := newLocal(t, time.Hour)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)
	_, session, err := p.SignIn(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := p.Refresh(ctx, session.RefreshToken)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
	assert.Equal(t, 1, succeeded)

	var live int64
	require.NoError(t, db.Model(&models.AuthSession{}).Where("revoked = ?", false).Count(&live).Error)
	assert.Equal(t, int64(1), live, "only the winning refresh leaves a live session")
}

func TestLocalDeleteAccount(t *testing.T) {
	p, _ := newLocal(t, time.Hour)
	ctx := context.Background()

	account, err := p.SignUp(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)
	_, session, err := p.SignIn(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)

	require.NoError(t, p.DeleteAccount(ctx, account.ID))

	_, err = p.Verify(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = p.SignIn(ctx, "ana@example.com", "segredo1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, p.DeleteAccount(ctx, uuid.New()), ErrAccountNotFound)
}
