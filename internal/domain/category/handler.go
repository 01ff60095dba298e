package category

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tritium/internal/pkg/apperr"
	"tritium/internal/pkg/response"
)

type Handler struct {
	service *Service
	log     zerolog.Logger
}

func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// CreateCategory godoc
// @Summary Create a course category
// @Tags Admin Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400,409,500 {object} map[string]interface{}
// @Router /admin/create-new-category [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	cat, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if verr, ok := apperr.AsValidation(err); ok {
			response.FieldErrors(c, http.StatusBadRequest, verr.Fields)
			return
		}
		if errors.Is(err, ErrCategoryExists) {
			response.Field(c, http.StatusConflict, "name", "Category already exists")
			return
		}
		h.log.Error().Err(err).Msg("create category failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create category")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"category": cat})
}

// ListCategories godoc
// @Summary List course categories
// @Tags Admin Categories
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /admin/get-all-categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.service.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list categories failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load categories")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": cats})
}
