package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type userRepoStub struct {
	authRepoStub
	lastFilter models.UserFilter
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	m := &userRepoStub{authRepoStub: *newAuthRepoStub(users...)}
	return m
}

func (m *userRepoStub) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *userRepoStub) Delete(ctx context.Context, id string) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = false
	return nil
}

func (m *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	result := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		if filter.District != "" && user.District != filter.District {
			continue
		}
		result = append(result, *user)
	}
	return result, len(result), nil
}

func districtAdminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "da-1", Role: models.RoleDistrictAdmin, State: "Kaduna", District: "Zaria"}
}

func nationalAdminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "na-1", Role: models.RoleNationalAdmin}
}

func TestUserServiceListScopedToDistrict(t *testing.T) {
	inside := seededUser(models.RoleVet)
	outside := seededUser(models.RoleVet)
	outside.ID = uuid.NewString()
	outside.Email = "other@example.com"
	outside.District = "Ikara"
	repo := newUserRepoStub(inside, outside)
	svc := NewUserService(repo, nil, nil)

	users, _, err := svc.List(context.Background(), dto.UserQuery{}, districtAdminClaims())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Zaria", repo.lastFilter.District)
}

func TestUserServiceListDeniedForFarmer(t *testing.T) {
	svc := NewUserService(newUserRepoStub(), nil, nil)

	_, _, err := svc.List(context.Background(), dto.UserQuery{}, farmerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateForcesDistrictRegion(t *testing.T) {
	repo := newUserRepoStub()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), dto.CreateUserRequest{
		FullName: "Dr. Obi",
		Email:    "obi@example.com",
		Password: "password123",
		Role:     models.RoleVet,
		State:    "Lagos",
		District: "Ikeja",
	}, districtAdminClaims())
	require.NoError(t, err)
	// Payload region is ignored, the admin's own region wins.
	require.Equal(t, "Kaduna", user.State)
	require.Equal(t, "Zaria", user.District)
	require.True(t, user.Active)
	require.Len(t, repo.auditLogs, 1)
	require.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestUserServiceDistrictAdminCannotCreateAdmins(t *testing.T) {
	svc := NewUserService(newUserRepoStub(), nil, nil)

	for _, role := range []models.UserRole{models.RoleDistrictAdmin, models.RoleNationalAdmin} {
		_, err := svc.Create(context.Background(), dto.CreateUserRequest{
			FullName: "New Admin",
			Email:    "admin@example.com",
			Password: "password123",
			Role:     role,
		}, districtAdminClaims())
		require.Error(t, err, string(role))
		require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	svc := NewUserService(newUserRepoStub(seededUser(models.RoleVet)), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		FullName: "Copycat",
		Email:    "user@example.com",
		Password: "password123",
		Role:     models.RoleVet,
	}, nationalAdminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateOutsideDistrict(t *testing.T) {
	user := seededUser(models.RoleExtension)
	user.District = "Ikara"
	svc := NewUserService(newUserRepoStub(user), nil, nil)

	_, err := svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{
		FullName: user.FullName,
		Role:     user.Role,
		State:    user.State,
		District: user.District,
		Active:   true,
	}, districtAdminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeactivate(t *testing.T) {
	user := seededUser(models.RoleVet)
	repo := newUserRepoStub(user)
	svc := NewUserService(repo, nil, nil)

	err := svc.Deactivate(context.Background(), user.ID, nationalAdminClaims())
	require.NoError(t, err)
	require.False(t, repo.users[user.ID].Active)
}
