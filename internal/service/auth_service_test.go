package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type authRepoStub struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
}

func newAuthRepoStub(users ...*models.User) *authRepoStub {
	m := &authRepoStub{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
	for _, user := range users {
		m.users[user.ID] = user
	}
	return m
}

func (m *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.users[user.ID] = user
	return nil
}

func (m *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if user, ok := m.users[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (m *authRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = updatedAt
	return nil
}

func (m *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.refreshTokens[token]; ok {
		copy := *stored
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "biosecure-test",
	}
}

func seededUser(role models.UserRole) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	return &models.User{
		ID:           uuid.NewString(),
		Email:        "user@example.com",
		PasswordHash: string(hash),
		FullName:     "Aisha Bello",
		Role:         role,
		State:        "Kaduna",
		District:     "Zaria",
		Active:       true,
	}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	user := seededUser(models.RoleFarmer)
	repo := newAuthRepoStub(user)
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, string(policy.RouteFarmerDashboard), resp.LandingRoute)
	require.Equal(t, "Kaduna", resp.User.State)
	require.NotNil(t, repo.users[user.ID].LastLogin)
}

func TestAuthServiceLoginLandingRoutePerRole(t *testing.T) {
	cases := map[models.UserRole]policy.Route{
		models.RoleFarmer:        policy.RouteFarmerDashboard,
		models.RoleVet:           policy.RouteVetDashboard,
		models.RoleExtension:     policy.RouteExtensionDashboard,
		models.RoleDistrictAdmin: policy.RouteDistrictDashboard,
		models.RoleNationalAdmin: policy.RouteNationalDashboard,
	}
	for role, route := range cases {
		user := seededUser(role)
		svc := NewAuthService(newAuthRepoStub(user), nil, nil, nil, testAuthConfig())

		resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
		require.NoError(t, err, string(role))
		require.Equal(t, string(route), resp.LandingRoute, string(role))
	}
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(seededUser(models.RoleFarmer)), nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := seededUser(models.RoleFarmer)
	user.Active = false
	svc := NewAuthService(newAuthRepoStub(user), nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterFarmerCreatesFarm(t *testing.T) {
	repo := newAuthRepoStub()
	farms := newFarmRepoStub()
	svc := NewAuthService(repo, farms, nil, nil, testAuthConfig())

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Chinedu Okafor",
		Email:    "chinedu@example.com",
		Password: "password123",
		Role:     models.RoleFarmer,
		FarmName: "Sunrise Poultry",
		State:    "Lagos",
		District: "Ikeja",
	})
	require.NoError(t, err)
	require.Equal(t, string(policy.RouteFarmerDashboard), resp.LandingRoute)
	require.Len(t, farms.farms, 1)
	for _, farm := range farms.farms {
		require.Equal(t, "Sunrise Poultry", farm.Name)
		require.Equal(t, resp.User.ID, farm.OwnerID)
	}
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(seededUser(models.RoleFarmer)), nil, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Someone Else",
		Email:    "user@example.com",
		Password: "password123",
		Role:     models.RoleFarmer,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	user := seededUser(models.RoleVet)
	repo := newAuthRepoStub(user)
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	// The spent token must not be usable a second time.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	user := seededUser(models.RoleFarmer)
	repo := newAuthRepoStub(user)
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, user.ID, models.LoginRequest{})
	require.NoError(t, err)
	require.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	// The revoked token must no longer mint access tokens.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	// Logging out twice is harmless. Revocation is an idempotent update,
	// so a retried or duplicated logout request succeeds.
	err = svc.Logout(context.Background(), login.RefreshToken, user.ID, models.LoginRequest{})
	require.NoError(t, err)
	require.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
}

func TestAuthServiceLogoutForeignToken(t *testing.T) {
	user := seededUser(models.RoleFarmer)
	repo := newAuthRepoStub(user)
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else", models.LoginRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	require.False(t, repo.refreshTokens[login.RefreshToken].Revoked)

	err = svc.Logout(context.Background(), "unknown-token", user.ID, models.LoginRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRoundTrip(t *testing.T) {
	user := seededUser(models.RoleDistrictAdmin)
	svc := NewAuthService(newAuthRepoStub(user), nil, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(login.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, models.RoleDistrictAdmin, claims.Role)
	require.Equal(t, "Zaria", claims.District)

	_, err = svc.ValidateToken(login.AccessToken + "tampered")
	require.Error(t, err)
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	user := seededUser(models.RoleFarmer)
	repo := newAuthRepoStub(user)
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpassword1",
	})
	require.NoError(t, err)
	require.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.Error(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "newpassword1"})
	require.NoError(t, err)
}
