package lecture

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tritium/internal/domain/upload"
	"tritium/internal/pkg/apperr"
	"tritium/internal/pkg/response"
)

type Handler struct {
	service *Service
	uploads *upload.Handler
	maxSize int64
	log     zerolog.Logger
}

// NewHandler wires the lecture routes. uploads renders file validation
// errors the same way the course media endpoint does.
func NewHandler(service *Service, uploads *upload.Handler, maxSize int64, log zerolog.Logger) *Handler {
	return &Handler{service: service, uploads: uploads, maxSize: maxSize, log: log}
}

func idParam(c *gin.Context, name, message string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		response.Field(c, http.StatusBadRequest, name, message)
		return "", false
	}
	return id, true
}

func courseParam(c *gin.Context) (string, bool) {
	return idParam(c, "courseId", "Invalid course ID")
}

func lectureParam(c *gin.Context) (string, bool) {
	return idParam(c, "lectureId", "Invalid lecture ID")
}

func (h *Handler) fail(c *gin.Context, err error) {
	if verr, ok := apperr.AsValidation(err); ok {
		response.FieldErrors(c, http.StatusBadRequest, verr.Fields)
		return
	}
	switch {
	case errors.Is(err, ErrCourseNotFound):
		response.Error(c, http.StatusNotFound, "COURSE_NOT_FOUND", "Course not found")
	case errors.Is(err, ErrLectureNotFound):
		response.Error(c, http.StatusNotFound, "LECTURE_NOT_FOUND", "Lecture not found")
	case errors.Is(err, ErrInvalidOrder):
		response.Field(c, http.StatusBadRequest, "lecture_ids", "Lecture ids must match the course lectures")
	case errors.Is(err, upload.ErrNotPending):
		response.Field(c, http.StatusConflict, "video_url", "Lecture video is already in use")
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("lecture request failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Lecture operation failed")
	}
}

// List godoc
// @Summary List lectures of a course
// @Tags Admin Lectures
// @Produce json
// @Security BearerAuth
// @Router /admin/courses/{courseId}/lectures [get]
func (h *Handler) List(c *gin.Context) {
	courseID, ok := courseParam(c)
	if !ok {
		return
	}
	lectures, err := h.service.List(c.Request.Context(), courseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lectures": lectures})
}

// Add godoc
// @Summary Add a lecture at the end of a course
// @Tags Admin Lectures
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /admin/courses/{courseId}/lectures [post]
func (h *Handler) Add(c *gin.Context) {
	courseID, ok := courseParam(c)
	if !ok {
		return
	}
	var req LectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	l, err := h.service.Add(c.Request.Context(), courseID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"lecture": l})
}

// UploadVideo godoc
// @Summary Upload a lecture video
// @Tags Admin Lectures
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param video_url formData file true "Lecture video"
// @Router /admin/courses/{courseId}/lectures/upload-video [post]
func (h *Handler) UploadVideo(c *gin.Context) {
	courseID, ok := courseParam(c)
	if !ok {
		return
	}
	form, ok := upload.ParseMultipart(c, h.maxSize)
	if !ok {
		return
	}

	u, err := h.service.UploadVideo(c.Request.Context(), c.GetString("user_id"), courseID, form.File[upload.KindLectureVideo.Field()])
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			h.fail(c, err)
			return
		}
		h.uploads.RenderError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"video_url":  u.Key,
		"video_link": h.service.files.URL(u.Key),
	})
}

// Reorder godoc
// @Summary Reorder the lectures of a course
// @Tags Admin Lectures
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /admin/lectures/reorder [put]
func (h *Handler) Reorder(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	lectures, err := h.service.Reorder(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lectures": lectures})
}

// Delete godoc
// @Summary Delete a lecture and its video
// @Tags Admin Lectures
// @Produce json
// @Security BearerAuth
// @Router /admin/lectures/{lectureId} [delete]
func (h *Handler) Delete(c *gin.Context) {
	lectureID, ok := lectureParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), lectureID); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": lectureID})
}

// ToggleHidden godoc
// @Summary Show or hide a lecture
// @Tags Admin Lectures
// @Produce json
// @Security BearerAuth
// @Router /admin/lectures/{lectureId}/hidden [put]
func (h *Handler) ToggleHidden(c *gin.Context) {
	lectureID, ok := lectureParam(c)
	if !ok {
		return
	}
	l, err := h.service.ToggleHidden(c.Request.Context(), lectureID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lecture": l})
}

// Get godoc
// @Summary Get a lecture
// @Tags Admin Lectures
// @Produce json
// @Security BearerAuth
// @Router /admin/courses/{courseId}/lectures/{lectureId} [get]
func (h *Handler) Get(c *gin.Context) {
	courseID, ok := courseParam(c)
	if !ok {
		return
	}
	lectureID, ok := lectureParam(c)
	if !ok {
		return
	}
	l, err := h.service.Get(c.Request.Context(), courseID, lectureID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lecture": l})
}

// Update godoc
// @Summary Update a lecture
// @Tags Admin Lectures
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /admin/courses/{courseId}/lectures/{lectureId} [put]
func (h *Handler) Update(c *gin.Context) {
	courseID, ok := courseParam(c)
	if !ok {
		return
	}
	lectureID, ok := lectureParam(c)
	if !ok {
		return
	}
	var req LectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	l, err := h.service.Update(c.Request.Context(), courseID, lectureID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lecture": l})
}
