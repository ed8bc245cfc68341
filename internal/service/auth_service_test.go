package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"talehub/internal/config"
	"talehub/internal/eventbus"
	"talehub/internal/models"
	"talehub/internal/repository"
)

type authProfileRepo struct {
	*fakeProfileRepo
	getByIDCalls  int64
	refreshTokens map[string]*models.Profile
	rotated       []string
	resetTokens   map[string]string
	passwords     map[string]string
	lastLoginErr  error
}

func (f *authProfileRepo) GetByID(ctx context.Context, profileID string) (*models.Profile, error) {
	atomic.AddInt64(&f.getByIDCalls, 1)
	// Simulated round-trip so concurrent callers overlap.
	time.Sleep(5 * time.Millisecond)
	return f.fakeProfileRepo.GetByID(ctx, profileID)
}

func (f *authProfileRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Profile, error) {
	profile, ok := f.refreshTokens[refreshToken]
	if !ok {
		return nil, fmt.Errorf("invalid refresh token: %w", repository.ErrNotFound)
	}
	return profile, nil
}

func (f *authProfileRepo) UpdateRefreshToken(ctx context.Context, profileID, refreshToken string, expiryTime time.Time) error {
	f.rotated = append(f.rotated, refreshToken)
	return nil
}

func (f *authProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, fmt.Errorf("profile with email %s: %w", email, repository.ErrNotFound)
}

func (f *authProfileRepo) VerifyPassword(ctx context.Context, email, password string) (*models.Profile, error) {
	return f.GetByEmail(ctx, email)
}

func (f *authProfileRepo) UpdateLastLogin(ctx context.Context, profileID string) error {
	return f.lastLoginErr
}

func (f *authProfileRepo) SetResetToken(ctx context.Context, profileID, token string, expiryTime time.Time) error {
	if f.resetTokens == nil {
		f.resetTokens = make(map[string]string)
	}
	f.resetTokens[token] = profileID
	return nil
}

func (f *authProfileRepo) GetByResetToken(ctx context.Context, token string) (*models.Profile, error) {
	profileID, ok := f.resetTokens[token]
	if !ok {
		return nil, fmt.Errorf("invalid or expired reset token: %w", repository.ErrNotFound)
	}
	return f.fakeProfileRepo.GetByID(ctx, profileID)
}

func (f *authProfileRepo) UpdatePassword(ctx context.Context, profileID, passwordHash string) error {
	if f.passwords == nil {
		f.passwords = make(map[string]string)
	}
	f.passwords[profileID] = passwordHash
	return nil
}

func (f *authProfileRepo) ClearResetToken(ctx context.Context, profileID string) error {
	for token, id := range f.resetTokens {
		if id == profileID {
			delete(f.resetTokens, token)
		}
	}
	return nil
}

func authTestConfig() *config.Config {
	cfg := testConfig()
	cfg.JWTSecretKey = "test-secret"
	cfg.AccessTokenDuration = time.Hour
	cfg.RefreshTokenDuration = 7 * 24 * time.Hour
	return cfg
}

func TestAuthService_CurrentProfile_Coalesces(t *testing.T) {
	profile := &models.Profile{ProfileID: "p1", Email: "asha@example.com"}
	repo := &authProfileRepo{fakeProfileRepo: newFakeProfileRepo(profile)}

	svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), eventbus.New())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.CurrentProfile(context.Background(), "p1")
			assert.NoError(t, err)
			assert.Equal(t, "p1", got.ProfileID)
		}()
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt64(&repo.getByIDCalls), int64(10),
		"concurrent loads of the same profile should share lookups")
}

func TestAuthService_RefreshTokens(t *testing.T) {
	valid := time.Now().Add(time.Hour)
	expired := time.Now().Add(-time.Hour)

	t.Run("valid token is rotated", func(t *testing.T) {
		token := "refresh-ok"
		repo := &authProfileRepo{
			fakeProfileRepo: newFakeProfileRepo(),
			refreshTokens: map[string]*models.Profile{
				token: {ProfileID: "p1", Email: "asha@example.com", RoleName: "user", RefreshTokenExpiryTime: &valid},
			},
		}
		svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), eventbus.New())

		_, accessToken, newRefresh, err := svc.RefreshTokens(context.Background(), token)

		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEqual(t, token, newRefresh)
		assert.Equal(t, []string{newRefresh}, repo.rotated)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := "refresh-old"
		repo := &authProfileRepo{
			fakeProfileRepo: newFakeProfileRepo(),
			refreshTokens: map[string]*models.Profile{
				token: {ProfileID: "p1", RefreshTokenExpiryTime: &expired},
			},
		}
		svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), eventbus.New())

		_, _, _, err := svc.RefreshTokens(context.Background(), token)

		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		repo := &authProfileRepo{fakeProfileRepo: newFakeProfileRepo(), refreshTokens: map[string]*models.Profile{}}
		svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), eventbus.New())

		_, _, _, err := svc.RefreshTokens(context.Background(), "nope")

		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestAuthService_Login_LastLoginBestEffort(t *testing.T) {
	profile := &models.Profile{ProfileID: "p1", Email: "asha@example.com", RoleName: "user"}
	repo := &authProfileRepo{
		fakeProfileRepo: newFakeProfileRepo(profile),
		lastLoginErr:    fmt.Errorf("profiles table locked"),
	}
	svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), eventbus.New())

	_, accessToken, refreshToken, err := svc.Login(context.Background(), "asha@example.com", "whatever")

	require.NoError(t, err, "a failed last-login stamp must not block login")
	assert.NotEmpty(t, accessToken)
	assert.Equal(t, []string{refreshToken}, repo.rotated)
}

func TestAuthService_PasswordReset(t *testing.T) {
	profile := &models.Profile{ProfileID: "p1", Email: "asha@example.com"}

	t.Run("request issues a token and publishes", func(t *testing.T) {
		repo := &authProfileRepo{fakeProfileRepo: newFakeProfileRepo(profile)}
		bus := eventbus.New()

		var payload map[string]string
		bus.Subscribe(eventbus.PasswordResetRequested, func(e eventbus.Event) { payload = e.Payload })

		svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), bus)

		require.NoError(t, svc.RequestPasswordReset(context.Background(), "asha@example.com"))

		require.NotNil(t, payload)
		assert.Equal(t, "p1", payload["profileId"])
		require.Len(t, repo.resetTokens, 1)
		assert.Contains(t, repo.resetTokens, payload["resetToken"])
	})

	t.Run("unknown email is silently accepted", func(t *testing.T) {
		repo := &authProfileRepo{fakeProfileRepo: newFakeProfileRepo(profile)}
		bus := eventbus.New()

		events := 0
		bus.Subscribe(eventbus.PasswordResetRequested, func(eventbus.Event) { events++ })

		svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), bus)

		require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@example.com"))
		assert.Zero(t, events)
		assert.Empty(t, repo.resetTokens)
	})

	t.Run("valid token sets the password once", func(t *testing.T) {
		repo := &authProfileRepo{
			fakeProfileRepo: newFakeProfileRepo(profile),
			resetTokens:     map[string]string{"tok-1": "p1"},
		}
		svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), eventbus.New())

		require.NoError(t, svc.ResetPassword(context.Background(), "tok-1", "brand-new-pass"))

		hash := repo.passwords["p1"]
		require.NotEmpty(t, hash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("brand-new-pass")))
		assert.Empty(t, repo.resetTokens, "token should be single use")

		err := svc.ResetPassword(context.Background(), "tok-1", "another-pass")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("short passwords are rejected", func(t *testing.T) {
		repo := &authProfileRepo{
			fakeProfileRepo: newFakeProfileRepo(profile),
			resetTokens:     map[string]string{"tok-1": "p1"},
		}
		svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), eventbus.New())

		err := svc.ResetPassword(context.Background(), "tok-1", "short")

		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, repo.passwords)
	})
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	profile := &models.Profile{ProfileID: "p1", Email: "asha@example.com", RoleName: models.RoleModerator}
	repo := &authProfileRepo{
		fakeProfileRepo: newFakeProfileRepo(),
		refreshTokens:   map[string]*models.Profile{"r": profile},
	}
	svc := NewAuthService(repo, &fakeRoleRepo{}, &fakeStorage{}, authTestConfig(), eventbus.New())

	now := time.Now().Add(time.Hour)
	profile.RefreshTokenExpiryTime = &now

	_, accessToken, _, err := svc.RefreshTokens(context.Background(), "r")
	require.NoError(t, err)

	claims, err := svc.GetProfileFromToken(accessToken)

	require.NoError(t, err)
	assert.Equal(t, "p1", claims.ProfileID)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.Equal(t, models.RoleModerator, claims.RoleName)
}
