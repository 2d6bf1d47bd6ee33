package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/service"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
	"github.com/agrisentry/biosecure-api/pkg/response"
)

// ComplianceHandler wires HTTP endpoints to the compliance service.
type ComplianceHandler struct {
	service *service.ComplianceService
}

// NewComplianceHandler creates a new handler.
func NewComplianceHandler(svc *service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{service: svc}
}

// Submit godoc
// @Summary Submit a compliance log
// @Tags Compliance
// @Accept json
// @Produce json
// @Param payload body dto.SubmitLogRequest true "Log payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /compliance-logs [post]
func (h *ComplianceHandler) Submit(c *gin.Context) {
	var req dto.SubmitLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid log payload"))
		return
	}

	log, err := h.service.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// List godoc
// @Summary List compliance logs
// @Tags Compliance
// @Produce json
// @Param farmId query string false "Filter by farm"
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /compliance-logs [get]
func (h *ComplianceHandler) List(c *gin.Context) {
	h.list(c, c.Query("farmId"))
}

// ListForFarm godoc
// @Summary List compliance logs for one farm
// @Tags Farms
// @Produce json
// @Param id path string true "Farm ID"
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /farms/{id}/logs [get]
func (h *ComplianceHandler) ListForFarm(c *gin.Context) {
	h.list(c, c.Param("id"))
}

func (h *ComplianceHandler) list(c *gin.Context, farmID string) {
	query := dto.ComplianceQuery{FarmID: farmID}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			query.Status = append(query.Status, models.ComplianceStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		query.PageSize = size
	}

	logs, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Get godoc
// @Summary Get a compliance log
// @Tags Compliance
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /compliance-logs/{id} [get]
func (h *ComplianceHandler) Get(c *gin.Context) {
	log, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Review godoc
// @Summary Review a pending compliance log
// @Description Approve or reject a pending log. Reviewed logs are immutable.
// @Tags Compliance
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body dto.ReviewLogRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /compliance-logs/{id}/review [put]
func (h *ComplianceHandler) Review(c *gin.Context) {
	var req dto.ReviewLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	log, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}
