package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/middleware"
	"github.com/agrisentry/biosecure-api/internal/models"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
	"github.com/agrisentry/biosecure-api/pkg/response"
)

type dashboardService interface {
	Farmer(ctx context.Context, actor *models.JWTClaims) (*dto.FarmerDashboardResponse, bool, error)
	Vet(ctx context.Context, actor *models.JWTClaims) (*dto.VetDashboardResponse, bool, error)
	Extension(ctx context.Context, actor *models.JWTClaims) (*dto.ExtensionDashboardResponse, bool, error)
	District(ctx context.Context, actor *models.JWTClaims) (*dto.DistrictDashboardResponse, bool, error)
	National(ctx context.Context, actor *models.JWTClaims) (*dto.NationalDashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Me godoc
// @Summary Dashboard for the actor's role
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	switch claims.Role {
	case models.RoleFarmer:
		h.respond(c, func(ctx context.Context) (interface{}, bool, error) {
			res, hit, err := h.service.Farmer(ctx, claims)
			return res, hit, err
		})
	case models.RoleVet:
		h.respond(c, func(ctx context.Context) (interface{}, bool, error) {
			res, hit, err := h.service.Vet(ctx, claims)
			return res, hit, err
		})
	case models.RoleExtension:
		h.respond(c, func(ctx context.Context) (interface{}, bool, error) {
			res, hit, err := h.service.Extension(ctx, claims)
			return res, hit, err
		})
	case models.RoleDistrictAdmin:
		h.respond(c, func(ctx context.Context) (interface{}, bool, error) {
			res, hit, err := h.service.District(ctx, claims)
			return res, hit, err
		})
	case models.RoleNationalAdmin:
		h.respond(c, func(ctx context.Context) (interface{}, bool, error) {
			res, hit, err := h.service.National(ctx, claims)
			return res, hit, err
		})
	default:
		response.Error(c, appErrors.ErrForbidden)
	}
}

func (h *DashboardHandler) respond(c *gin.Context, load func(ctx context.Context) (interface{}, bool, error)) {
	start := time.Now()
	payload, cacheHit, err := load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, payload, nil, meta)
}
