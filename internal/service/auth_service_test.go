package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/repository"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

// mockAuthRepo emulates the atomic lockout update performed by the user
// repository so the counter semantics can be exercised in memory.
type mockAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
	resetCalls    int
	failedCalls   int
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.users[id].PasswordHash = passwordHash
	return nil
}

func (m *mockAuthRepo) RecordFailedLogin(ctx context.Context, id string, now time.Time, maxAttempts int, lockUntil time.Time) (*repository.LockoutState, error) {
	m.failedCalls++
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if u.LockUntil != nil && !u.LockUntil.After(now) {
		u.LoginAttempts = 1
		u.LockUntil = nil
	} else {
		u.LoginAttempts++
		if u.LockUntil == nil && u.LoginAttempts >= maxAttempts {
			until := lockUntil
			u.LockUntil = &until
		}
	}
	return &repository.LockoutState{LoginAttempts: u.LoginAttempts, LockUntil: u.LockUntil}, nil
}

func (m *mockAuthRepo) ResetLoginAttempts(ctx context.Context, id string, now time.Time) error {
	m.resetCalls++
	u := m.users[id]
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &now
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range m.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T) *models.User {
	return &models.User{
		ID:           "user-1",
		Email:        "jordan@example.com",
		PasswordHash: hashPassword(t, "correct-horse"),
		FirstName:    "Jordan",
		LastName:     "Iyer",
		Role:         models.RoleManager,
		Permissions:  models.PermissionsForRole(models.RoleManager),
		Active:       true,
	}
}

func newAuthServiceForTest(repo authUserRepository, at time.Time) *AuthService {
	svc := NewAuthService(repo, nil, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "hrops-api",
	})
	svc.now = func() time.Time { return at }
	return svc
}

func TestLoginSuccessResetsCounterAndIssuesTokens(t *testing.T) {
	user := activeUser(t)
	user.LoginAttempts = 3
	repo := newMockAuthRepo(user)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newAuthServiceForTest(repo, now)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, 1, repo.resetCalls)
	assert.Zero(t, user.LoginAttempts)
	assert.Equal(t, "Jordan Iyer", resp.User.FullName)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, claims.Permissions.CanApproveJobs, "permissions must travel in the token")
}

func TestLoginWrongPasswordIncrementsCounter(t *testing.T) {
	user := activeUser(t)
	repo := newMockAuthRepo(user)
	svc := newAuthServiceForTest(repo, time.Now().UTC())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
	assert.Equal(t, 1, user.LoginAttempts)
	assert.Nil(t, user.LockUntil)
}

func TestLoginFifthFailureLocksAccount(t *testing.T) {
	user := activeUser(t)
	repo := newMockAuthRepo(user)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newAuthServiceForTest(repo, now)

	var err error
	for i := 0; i < 4; i++ {
		_, err = svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials), "attempt %d", i+1)
	}

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAccountLocked))
	require.NotNil(t, user.LockUntil)
	assert.Equal(t, now.Add(2*time.Hour), *user.LockUntil)
	assert.Equal(t, 5, user.LoginAttempts)
}

func TestLoginOnLockedAccountDoesNotTouchCounter(t *testing.T) {
	user := activeUser(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	lockUntil := now.Add(time.Hour)
	user.LoginAttempts = 5
	user.LockUntil = &lockUntil
	repo := newMockAuthRepo(user)
	svc := newAuthServiceForTest(repo, now)

	// even the correct password is rejected while the lock holds
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAccountLocked))
	assert.Equal(t, 0, repo.failedCalls)
	assert.Equal(t, 5, user.LoginAttempts)
}

func TestLoginExpiredLockResetsCounterToOne(t *testing.T) {
	user := activeUser(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Minute)
	user.LoginAttempts = 5
	user.LockUntil = &expired
	repo := newMockAuthRepo(user)
	svc := newAuthServiceForTest(repo, now)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials), "expired lock must not report locked")
	assert.Equal(t, 1, user.LoginAttempts)
	assert.Nil(t, user.LockUntil)
}

func TestLoginExpiredLockAllowsCorrectPassword(t *testing.T) {
	user := activeUser(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Minute)
	user.LoginAttempts = 5
	user.LockUntil = &expired
	repo := newMockAuthRepo(user)
	svc := newAuthServiceForTest(repo, now)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Zero(t, user.LoginAttempts)
}

func TestLoginUnknownEmailIsInvalidCredentials(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthServiceForTest(repo, time.Now().UTC())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t)
	user.Active = false
	repo := newMockAuthRepo(user)
	svc := newAuthServiceForTest(repo, time.Now().UTC())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInactiveAccount))
}

func TestRefreshTokenRotatesAndRevokesOld(t *testing.T) {
	user := activeUser(t)
	repo := newMockAuthRepo(user)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newAuthServiceForTest(repo, now)

	old := &models.RefreshToken{ID: "rt-1", UserID: user.ID, Token: "old-token", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), old))

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.True(t, old.Revoked)
}

func TestRefreshTokenRejectsLockedAccount(t *testing.T) {
	user := activeUser(t)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	lockUntil := now.Add(time.Hour)
	user.LockUntil = &lockUntil
	repo := newMockAuthRepo(user)
	svc := newAuthServiceForTest(repo, now)

	old := &models.RefreshToken{ID: "rt-1", UserID: user.ID, Token: "old-token", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), old))

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAccountLocked))
}

func TestRefreshTokenRejectsExpired(t *testing.T) {
	user := activeUser(t)
	repo := newMockAuthRepo(user)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc := newAuthServiceForTest(repo, now)

	stale := &models.RefreshToken{ID: "rt-1", UserID: user.ID, Token: "stale", ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), stale))

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestChangePasswordRequiresOldPassword(t *testing.T) {
	user := activeUser(t)
	repo := newMockAuthRepo(user)
	svc := newAuthServiceForTest(repo, time.Now().UTC())

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "new-password",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "new-password",
	})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password")))
}
