package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/service"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
	"github.com/agrisentry/biosecure-api/pkg/response"
)

// FarmHandler wires HTTP endpoints to the farm service.
type FarmHandler struct {
	service *service.FarmService
}

// NewFarmHandler creates a new handler.
func NewFarmHandler(svc *service.FarmService) *FarmHandler {
	return &FarmHandler{service: svc}
}

// Create godoc
// @Summary Register a farm
// @Tags Farms
// @Accept json
// @Produce json
// @Param payload body dto.CreateFarmRequest true "Farm payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /farms [post]
func (h *FarmHandler) Create(c *gin.Context) {
	var req dto.CreateFarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid farm payload"))
		return
	}

	farm, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, farm)
}

// List godoc
// @Summary List visible farms
// @Tags Farms
// @Produce json
// @Param riskLevel query string false "Filter by risk level"
// @Param search query string false "Search by name"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /farms [get]
func (h *FarmHandler) List(c *gin.Context) {
	query := dto.FarmQuery{
		State:     c.Query("state"),
		District:  c.Query("district"),
		RiskLevel: c.Query("riskLevel"),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		query.PageSize = size
	}

	farms, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, farms, pagination)
}

// Get godoc
// @Summary Get a farm
// @Tags Farms
// @Produce json
// @Param id path string true "Farm ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /farms/{id} [get]
func (h *FarmHandler) Get(c *gin.Context) {
	farm, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, farm, nil)
}

// Update godoc
// @Summary Update a farm
// @Tags Farms
// @Accept json
// @Produce json
// @Param id path string true "Farm ID"
// @Param payload body dto.UpdateFarmRequest true "Farm payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /farms/{id} [put]
func (h *FarmHandler) Update(c *gin.Context) {
	var req dto.UpdateFarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid farm payload"))
		return
	}

	farm, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, farm, nil)
}

// UpdateRisk godoc
// @Summary Reclassify farm risk
// @Tags Farms
// @Accept json
// @Produce json
// @Param id path string true "Farm ID"
// @Param payload body dto.UpdateRiskRequest true "Risk payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /farms/{id}/risk [put]
func (h *FarmHandler) UpdateRisk(c *gin.Context) {
	var req dto.UpdateRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid risk payload"))
		return
	}

	farm, err := h.service.UpdateRiskLevel(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, farm, nil)
}

// Delete godoc
// @Summary Delete a farm
// @Tags Farms
// @Param id path string true "Farm ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /farms/{id} [delete]
func (h *FarmHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
