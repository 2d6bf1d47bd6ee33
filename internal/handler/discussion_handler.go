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

// DiscussionHandler wires HTTP endpoints to the forum service.
type DiscussionHandler struct {
	service *service.DiscussionService
}

// NewDiscussionHandler creates a new handler.
func NewDiscussionHandler(svc *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{service: svc}
}

// Create godoc
// @Summary Create a forum post
// @Description Multipart form with a text field and an optional image attachment
// @Tags Discussion
// @Accept multipart/form-data
// @Produce json
// @Param text formData string true "Post text"
// @Param image formData file false "Image attachment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /discussion [post]
func (h *DiscussionHandler) Create(c *gin.Context) {
	req := dto.CreatePostRequest{Text: c.PostForm("text")}

	fileHeader, err := c.FormFile("image")
	if err == nil && fileHeader != nil {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			response.Error(c, appErrors.Wrap(openErr, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable image upload"))
			return
		}
		defer file.Close()
		req.Image = file
		req.ImageName = fileHeader.Filename
		req.ImageSize = fileHeader.Size
		req.ImageMIME = fileHeader.Header.Get("Content-Type")
	}

	post, createErr := h.service.CreatePost(c.Request.Context(), req, claimsFromContext(c))
	if createErr != nil {
		response.Error(c, createErr)
		return
	}
	response.Created(c, post)
}

// List godoc
// @Summary List forum posts, latest first
// @Tags Discussion
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /discussion [get]
func (h *DiscussionHandler) List(c *gin.Context) {
	filter := models.DiscussionFilter{AuthorID: c.Query("authorId")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	posts, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, pagination)
}

// Image godoc
// @Summary Serve a post image through a signed link
// @Tags Discussion
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /discussion/images [get]
func (h *DiscussionHandler) Image(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	path, err := h.service.ResolveImage(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}
