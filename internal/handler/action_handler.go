package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/service"
	"github.com/agrisentry/biosecure-api/pkg/response"
)

// ActionHandler wires HTTP endpoints to the corrective action service.
type ActionHandler struct {
	service *service.ActionService
}

// NewActionHandler creates a new handler.
func NewActionHandler(svc *service.ActionService) *ActionHandler {
	return &ActionHandler{service: svc}
}

// List godoc
// @Summary List corrective actions
// @Tags Actions
// @Produce json
// @Param farmId query string false "Filter by farm"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /actions [get]
func (h *ActionHandler) List(c *gin.Context) {
	filter := models.ActionFilter{FarmID: c.Query("farmId")}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.ActionStatus(strings.ToUpper(raw))
		filter.Status = &status
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	actions, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actions, pagination)
}

// Complete godoc
// @Summary Mark a corrective action complete
// @Description Completion is one way, already completed actions conflict
// @Tags Actions
// @Produce json
// @Param id path string true "Action ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /actions/{id}/complete [put]
func (h *ActionHandler) Complete(c *gin.Context) {
	action, err := h.service.Complete(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, action, nil)
}
