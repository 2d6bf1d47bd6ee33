package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/service"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
	"github.com/agrisentry/biosecure-api/pkg/response"
)

// AlertHandler wires HTTP endpoints to the alert service.
type AlertHandler struct {
	service *service.AlertService
}

// NewAlertHandler creates a new handler.
func NewAlertHandler(svc *service.AlertService) *AlertHandler {
	return &AlertHandler{service: svc}
}

// List godoc
// @Summary List alerts visible to the actor
// @Description Regional viewers also see national broadcasts
// @Tags Alerts
// @Produce json
// @Param severity query string false "Filter by severity"
// @Param acknowledged query bool false "Filter by acknowledgement"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	h.list(c, "")
}

// ListForFarm godoc
// @Summary List alerts raised for one farm
// @Tags Farms
// @Produce json
// @Param id path string true "Farm ID"
// @Param acknowledged query bool false "Filter by acknowledgement"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /farms/{id}/alerts [get]
func (h *AlertHandler) ListForFarm(c *gin.Context) {
	h.list(c, c.Param("id"))
}

func (h *AlertHandler) list(c *gin.Context, farmID string) {
	query := dto.AlertQuery{FarmID: farmID, Severity: c.Query("severity")}
	if raw := c.Query("acknowledged"); raw != "" {
		if acked, err := strconv.ParseBool(raw); err == nil {
			query.Acknowledged = &acked
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		query.PageSize = size
	}

	alerts, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, pagination)
}

// Acknowledge godoc
// @Summary Acknowledge an alert
// @Description Acknowledgement is one way, repeated calls conflict
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /alerts/{id}/acknowledge [put]
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	alert, err := h.service.Acknowledge(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Broadcast godoc
// @Summary Broadcast an alert
// @Description District admins broadcast within their district, national admins anywhere
// @Tags Alerts
// @Accept json
// @Produce json
// @Param payload body dto.BroadcastAlertRequest true "Alert payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /alerts [post]
func (h *AlertHandler) Broadcast(c *gin.Context) {
	var req dto.BroadcastAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid alert payload"))
		return
	}

	alert, err := h.service.Broadcast(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}
