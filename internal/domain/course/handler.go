package course

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

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

func courseParam(c *gin.Context) (string, bool) {
	id := c.Param("courseId")
	if _, err := uuid.Parse(id); err != nil {
		response.Field(c, http.StatusBadRequest, "courseId", "Invalid course ID")
		return "", false
	}
	return id, true
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
	switch {
	case errors.Is(err, ErrCourseNotFound):
		response.Error(c, http.StatusNotFound, "COURSE_NOT_FOUND", "Course not found")
	case errors.Is(err, upload.ErrNotPending):
		response.Error(c, http.StatusConflict, "FILES_IN_USE", "Course files are already attached to another course")
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("course request failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Course operation failed")
	}
}

// CreateCourse godoc
// @Summary Create a course from previously uploaded media
// @Tags Admin Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400,409,500 {object} map[string]interface{}
// @Router /admin/create-new-course [post]
func (h *Handler) CreateCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	course, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// GetAllCourses godoc
// @Summary List courses
// @Tags Admin Courses
// @Produce json
// @Security BearerAuth
// @Router /admin/get-all-courses [get]
func (h *Handler) GetAllCourses(c *gin.Context) {
	courses, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// GetCourseByID godoc
// @Summary Get a course with its lectures
// @Tags Admin Courses
// @Produce json
// @Security BearerAuth
// @Router /admin/get-course-by-id/{courseId} [get]
func (h *Handler) GetCourseByID(c *gin.Context) {
	id, ok := courseParam(c)
	if !ok {
		return
	}
	course, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// UpdateCourse godoc
// @Summary Update a course, optionally replacing its media
// @Tags Admin Courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file false "New course image"
// @Param intro_video formData file false "New intro video"
// @Router /admin/update-course/{courseId} [put]
func (h *Handler) UpdateCourse(c *gin.Context) {
	id, ok := courseParam(c)
	if !ok {
		return
	}
	form, ok := upload.ParseMultipart(c, 2*h.maxSize)
	if !ok {
		return
	}
	var req UpdateCourseRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FORM", "Invalid form data")
		return
	}

	course, err := h.service.Update(
		c.Request.Context(),
		c.GetString("user_id"),
		id,
		req,
		form.File[upload.KindImage.Field()],
		form.File[upload.KindIntroVideo.Field()],
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// DeleteCourse godoc
// @Summary Delete a course with its lectures and files
// @Tags Admin Courses
// @Produce json
// @Security BearerAuth
// @Router /admin/delete-course/{courseId} [delete]
func (h *Handler) DeleteCourse(c *gin.Context) {
	id, ok := courseParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}
