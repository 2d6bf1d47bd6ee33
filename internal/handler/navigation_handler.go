package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrisentry/biosecure-api/internal/policy"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
	"github.com/agrisentry/biosecure-api/pkg/response"
)

// NavigationHandler evaluates client-side route guards.
type NavigationHandler struct{}

// NewNavigationHandler creates a new handler.
func NewNavigationHandler() *NavigationHandler {
	return &NavigationHandler{}
}

// Guard godoc
// @Summary Evaluate a route guard
// @Description Decides whether the session may render the route. Denied
// requests carry the redirect target, login for anonymous sessions and
// the role landing dashboard otherwise.
// @Tags Navigation
// @Produce json
// @Param route query string true "Route path"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /navigation/guard [get]
func (h *NavigationHandler) Guard(c *gin.Context) {
	route := strings.TrimSpace(c.Query("route"))
	if route == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "route is required"))
		return
	}

	decision := policy.Guard(claimsFromContext(c), policy.Route(route))
	response.JSON(c, http.StatusOK, decision, nil)
}
