// Package policy is the single auditable role-access table: which
// dashboard each role lands on, which routes it may visit and which
// mutating actions it may perform. Handlers enforce it through
// middleware and services re-check it, so the UI is never the
// enforcement boundary.
package policy

import "github.com/agrisentry/biosecure-api/internal/models"

// Route identifies a client-side page the policy gates.
type Route string

const (
	RouteHome               Route = "/"
	RouteLogin              Route = "/login"
	RouteRegister           Route = "/register"
	RouteFarmerDashboard    Route = "/farmer-dashboard"
	RouteVetDashboard       Route = "/vet-dashboard"
	RouteExtensionDashboard Route = "/extension-dashboard"
	RouteDistrictDashboard  Route = "/district-dashboard"
	RouteNationalDashboard  Route = "/national-dashboard"
	RouteFarms              Route = "/farms"
	RouteDiscussion         Route = "/discussion"
	RouteReports            Route = "/reports"
	RouteTraining           Route = "/training"
)

// Action identifies a mutating operation the policy gates.
type Action string

const (
	ActionFarmCreate       Action = "farm:create"
	ActionFarmUpdate       Action = "farm:update"
	ActionFarmDelete       Action = "farm:delete"
	ActionRiskUpdate       Action = "farm:risk-update"
	ActionLogSubmit        Action = "compliance:submit"
	ActionLogReview        Action = "compliance:review"
	ActionActionComplete   Action = "corrective-action:complete"
	ActionAlertAcknowledge Action = "alert:acknowledge"
	ActionAlertBroadcast   Action = "alert:broadcast"
	ActionTrainingSchedule Action = "training:schedule"
	ActionUserManage       Action = "user:manage"
	ActionSystemConfigure  Action = "system:configure"
	ActionDiscussionPost   Action = "discussion:post"
	ActionReportExport     Action = "report:export"
)

type rolePolicy struct {
	landing Route
	routes  map[Route]struct{}
	actions map[Action]struct{}
}

func routeSet(routes ...Route) map[Route]struct{} {
	set := make(map[Route]struct{}, len(routes))
	for _, r := range routes {
		set[r] = struct{}{}
	}
	return set
}

func actionSet(actions ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// publicRoutes are reachable without a session.
var publicRoutes = routeSet(RouteHome, RouteLogin, RouteRegister)

// table is the fixed role-access mapping. Alert acknowledgement is open
// to every authenticated role because any viewer of an alert may
// acknowledge it; visibility itself is region-scoped in the services.
var table = map[models.UserRole]rolePolicy{
	models.RoleFarmer: {
		landing: RouteFarmerDashboard,
		routes:  routeSet(RouteFarmerDashboard, RouteFarms, RouteDiscussion),
		actions: actionSet(
			ActionFarmCreate, ActionFarmUpdate, ActionFarmDelete,
			ActionLogSubmit, ActionDiscussionPost, ActionAlertAcknowledge,
		),
	},
	models.RoleVet: {
		landing: RouteVetDashboard,
		routes:  routeSet(RouteVetDashboard, RouteFarms, RouteDiscussion),
		actions: actionSet(
			ActionRiskUpdate, ActionActionComplete, ActionLogReview,
			ActionDiscussionPost, ActionAlertAcknowledge,
		),
	},
	models.RoleExtension: {
		landing: RouteExtensionDashboard,
		routes:  routeSet(RouteExtensionDashboard, RouteFarms, RouteDiscussion, RouteTraining),
		actions: actionSet(
			ActionRiskUpdate, ActionActionComplete, ActionAlertAcknowledge,
			ActionTrainingSchedule, ActionDiscussionPost,
		),
	},
	models.RoleDistrictAdmin: {
		landing: RouteDistrictDashboard,
		routes:  routeSet(RouteDistrictDashboard, RouteFarms, RouteDiscussion, RouteReports),
		actions: actionSet(
			ActionLogReview, ActionAlertAcknowledge, ActionAlertBroadcast,
			ActionUserManage, ActionReportExport, ActionDiscussionPost,
		),
	},
	models.RoleNationalAdmin: {
		landing: RouteNationalDashboard,
		routes:  routeSet(RouteNationalDashboard, RouteFarms, RouteDiscussion, RouteReports),
		actions: actionSet(
			ActionSystemConfigure, ActionAlertAcknowledge, ActionAlertBroadcast,
			ActionUserManage, ActionReportExport, ActionDiscussionPost,
		),
	},
}

// Can reports whether the role may perform the mutating action.
func Can(role models.UserRole, action Action) bool {
	p, ok := table[role]
	if !ok {
		return false
	}
	_, ok = p.actions[action]
	return ok
}

// CanVisit reports whether the role may visit the route. Public routes
// are open to everyone.
func CanVisit(role models.UserRole, route Route) bool {
	if Public(route) {
		return true
	}
	p, ok := table[role]
	if !ok {
		return false
	}
	_, ok = p.routes[route]
	return ok
}

// Public reports whether the route is reachable without a session.
func Public(route Route) bool {
	_, ok := publicRoutes[route]
	return ok
}

// LandingRoute returns the dashboard route a role is redirected to
// after login or when it requests a page outside its allowed set.
func LandingRoute(role models.UserRole) Route {
	p, ok := table[role]
	if !ok {
		return RouteLogin
	}
	return p.landing
}

// Decision is the outcome of a navigation guard evaluation.
type Decision struct {
	Allow      bool  `json:"allow"`
	RedirectTo Route `json:"redirect_to,omitempty"`
}

// Guard decides whether a session may render the requested route.
// Anonymous sessions are sent to login for any non-public route;
// authenticated sessions requesting an off-role route are sent to
// their landing dashboard. Evaluated per navigation, never cached.
func Guard(claims *models.JWTClaims, route Route) Decision {
	if claims == nil {
		if Public(route) {
			return Decision{Allow: true}
		}
		return Decision{RedirectTo: RouteLogin}
	}
	if CanVisit(claims.Role, route) {
		return Decision{Allow: true}
	}
	return Decision{RedirectTo: LandingRoute(claims.Role)}
}
