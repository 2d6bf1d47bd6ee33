package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/service"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
	"github.com/agrisentry/biosecure-api/pkg/response"
)

// TrainingHandler wires HTTP endpoints to the training service.
type TrainingHandler struct {
	service *service.TrainingService
}

// NewTrainingHandler creates a new handler.
func NewTrainingHandler(svc *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{service: svc}
}

// Schedule godoc
// @Summary Schedule a training session
// @Tags Training
// @Accept json
// @Produce json
// @Param payload body dto.CreateTrainingRequest true "Training payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /trainings [post]
func (h *TrainingHandler) Schedule(c *gin.Context) {
	var req dto.CreateTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid training payload"))
		return
	}

	session, err := h.service.Schedule(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// List godoc
// @Summary List training sessions
// @Tags Training
// @Produce json
// @Param upcoming query bool false "Only sessions scheduled from now on"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /trainings [get]
func (h *TrainingHandler) List(c *gin.Context) {
	filter := models.TrainingFilter{}
	if upcoming, err := strconv.ParseBool(c.DefaultQuery("upcoming", "false")); err == nil && upcoming {
		now := time.Now().UTC()
		filter.After = &now
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	sessions, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}
