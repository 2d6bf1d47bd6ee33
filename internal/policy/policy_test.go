package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisentry/biosecure-api/internal/models"
)

func TestLandingRoutePerRole(t *testing.T) {
	cases := map[models.UserRole]Route{
		models.RoleFarmer:        RouteFarmerDashboard,
		models.RoleVet:           RouteVetDashboard,
		models.RoleExtension:     RouteExtensionDashboard,
		models.RoleDistrictAdmin: RouteDistrictDashboard,
		models.RoleNationalAdmin: RouteNationalDashboard,
	}
	for role, want := range cases {
		assert.Equal(t, want, LandingRoute(role), "role %s", role)
	}
	assert.Equal(t, RouteLogin, LandingRoute(models.UserRole("UNKNOWN")))
}

func TestGuardAnonymousRedirectsToLogin(t *testing.T) {
	for _, route := range []Route{
		RouteFarmerDashboard, RouteVetDashboard, RouteDistrictDashboard,
		RouteNationalDashboard, RouteFarms, RouteDiscussion,
	} {
		decision := Guard(nil, route)
		assert.False(t, decision.Allow, "route %s", route)
		assert.Equal(t, RouteLogin, decision.RedirectTo, "route %s", route)
	}
}

func TestGuardAnonymousAllowsPublicRoutes(t *testing.T) {
	for _, route := range []Route{RouteHome, RouteLogin, RouteRegister} {
		decision := Guard(nil, route)
		assert.True(t, decision.Allow, "route %s", route)
	}
}

func TestGuardOffRoleRouteNeverAllows(t *testing.T) {
	allDashboards := []Route{
		RouteFarmerDashboard, RouteVetDashboard, RouteExtensionDashboard,
		RouteDistrictDashboard, RouteNationalDashboard,
	}
	for _, role := range models.AllRoles {
		claims := &models.JWTClaims{UserID: "u1", Role: role}
		for _, route := range allDashboards {
			if CanVisit(role, route) {
				continue
			}
			decision := Guard(claims, route)
			require.False(t, decision.Allow, "role %s route %s", role, route)
			assert.Equal(t, LandingRoute(role), decision.RedirectTo, "role %s route %s", role, route)
		}
	}
}

func TestGuardAllowsOwnDashboard(t *testing.T) {
	for _, role := range models.AllRoles {
		claims := &models.JWTClaims{UserID: "u1", Role: role}
		decision := Guard(claims, LandingRoute(role))
		assert.True(t, decision.Allow, "role %s", role)
	}
}

func TestCanEnforcesActionTable(t *testing.T) {
	assert.True(t, Can(models.RoleFarmer, ActionLogSubmit))
	assert.True(t, Can(models.RoleVet, ActionLogReview))
	assert.True(t, Can(models.RoleDistrictAdmin, ActionLogReview))
	assert.True(t, Can(models.RoleExtension, ActionTrainingSchedule))
	assert.True(t, Can(models.RoleNationalAdmin, ActionSystemConfigure))

	// Approval is explicitly outside the extension worker's set.
	assert.False(t, Can(models.RoleExtension, ActionLogReview))
	assert.False(t, Can(models.RoleFarmer, ActionLogReview))
	assert.False(t, Can(models.RoleFarmer, ActionRiskUpdate))
	assert.False(t, Can(models.RoleVet, ActionUserManage))
	assert.False(t, Can(models.RoleDistrictAdmin, ActionSystemConfigure))
	assert.False(t, Can(models.UserRole("UNKNOWN"), ActionLogSubmit))
}

func TestAlertAcknowledgeOpenToAllRoles(t *testing.T) {
	for _, role := range models.AllRoles {
		assert.True(t, Can(role, ActionAlertAcknowledge), "role %s", role)
	}
}
