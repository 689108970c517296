package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/shortener-auth/internal/middleware"
	"github.com/SergeiKhy/shortener-auth/internal/models"
	"github.com/SergeiKhy/shortener-auth/internal/repository"
	"github.com/SergeiKhy/shortener-auth/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	baseURL string
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

type ShortenRequest struct {
	OriginalURL string `json:"original_url" binding:"required"`
}

type ShortenResponse struct {
	ShortID  string `json:"short_id"`
	ShortURL string `json:"short_url"`
}

type LinkResponse struct {
	ShortID     string     `json:"short_id"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	Clicks      int64      `json:"clicks"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Shorten godoc
// @Summary Create a short link
// @Description Create a new shortened URL owned by the caller
// @Tags links
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ShortenRequest true "Link creation request"
// @Success 201 {object} ShortenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /shorten [post]
func (h *LinkHandler) Shorten(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "original_url is required",
		})
		return
	}

	input := &models.CreateLinkInput{OriginalURL: req.OriginalURL}
	if email, ok := middleware.GetUserEmail(c); ok {
		input.Owner = &email
	}

	link, err := h.service.CreateLink(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_url",
				Message: "original_url must be an absolute http(s) URL",
			})
		case errors.Is(err, service.ErrAllocationExhausted):
			h.logger.Error("Short id space exhausted", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "allocation_exhausted",
				Message: "Could not allocate a short id, try again later",
			})
		default:
			h.logger.Error("Failed to create link", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to create link",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, ShortenResponse{
		ShortID:  link.ShortID,
		ShortURL: h.shortURL(link.ShortID),
	})
}

// Redirect godoc
// @Summary Redirect to original URL
// @Description Redirect to the original URL by short id and count the click
// @Tags links
// @Param code path string true "Short id"
// @Success 307 {object} nil
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	link, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "URL not found",
			})
			return
		}
		h.logger.Error("Failed to resolve link", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to resolve link",
		})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, link.OriginalURL)
}

// GetLink godoc
// @Summary Get usage of an owned short link
// @Tags links
// @Produce json
// @Security BearerAuth
// @Param code path string true "Short id"
// @Success 200 {object} LinkResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code} [get]
func (h *LinkHandler) GetLink(c *gin.Context) {
	code := c.Param("code")
	email, _ := middleware.GetUserEmail(c)

	link, err := h.service.GetOwnedLink(c.Request.Context(), code, email)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to get link", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get link",
		})
		return
	}

	c.JSON(http.StatusOK, h.toResponse(link))
}

// ListLinks godoc
// @Summary List caller's short links
// @Tags links
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items" default(20)
// @Success 200 {array} LinkResponse
// @Router /api/v1/links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	email, _ := middleware.GetUserEmail(c)

	limit := 0
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	links, err := h.service.ListLinks(c.Request.Context(), email, limit)
	if err != nil {
		h.logger.Error("Failed to list links", zap.String("owner", email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list links",
		})
		return
	}

	response := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		response = append(response, h.toResponse(link))
	}
	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) shortURL(shortID string) string {
	return h.baseURL + "/" + shortID
}

func (h *LinkHandler) toResponse(link *models.Link) LinkResponse {
	return LinkResponse{
		ShortID:     link.ShortID,
		ShortURL:    h.shortURL(link.ShortID),
		OriginalURL: link.OriginalURL,
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
		LastUsedAt:  link.LastUsedAt,
	}
}
