package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"tritium/internal/domain/auth"
	"tritium/internal/domain/upload"
	"tritium/internal/pkg/apperr"
	"tritium/internal/pkg/response"
)

type Handler struct {
	service *Service
	maxSize int64
	log     zerolog.Logger
}

func NewHandler(service *Service, maxSize int64, log zerolog.Logger) *Handler {
	return &Handler{service: service, maxSize: maxSize, log: log}
}

// GetStats godoc
// @Summary Dashboard counters
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Router /admin/dashboard-stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard stats failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load dashboard")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// GetProfile godoc
// @Summary Current admin profile
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Router /admin/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateProfile godoc
// @Summary Update the admin profile
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param profile_image formData file false "Avatar"
// @Router /admin/update-profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	form, ok := upload.ParseMultipart(c, h.maxSize)
	if !ok {
		return
	}
	var req auth.UpdateProfileRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FORM", "Invalid form data")
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), c.GetString("user_id"), req, form.File[upload.KindProfileImage.Field()])
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if verr, ok := apperr.AsValidation(err); ok {
		status := http.StatusBadRequest
		if errors.Is(err, upload.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		response.FieldErrors(c, status, verr.Fields)
		return
	}
	if errors.Is(err, auth.ErrUserNotFound) {
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("profile request failed")
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Profile update failed")
}
