package upload

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tritium/internal/pkg/apperr"
	"tritium/internal/pkg/response"
)

// multipartOverhead leaves room for boundaries and text fields on top of
// the file size limit.
const multipartOverhead = 1 << 20

type Handler struct {
	service *Service
	log     zerolog.Logger
}

func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type cleanupRequest struct {
	Files []string `json:"files"`
}

// UploadCourseFile godoc
// @Summary Upload course image and intro video
// @Tags Admin Courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Course image"
// @Param intro_video formData file true "Course intro video"
// @Success 200 {object} map[string]interface{}
// @Failure 400,413,500 {object} map[string]interface{}
// @Router /admin/upload-course-file [post]
func (h *Handler) UploadCourseFile(c *gin.Context) {
	form, ok := ParseMultipart(c, 2*h.service.MaxFileSize())
	if !ok {
		return
	}

	files, err := h.service.UploadCourseFiles(
		c.Request.Context(),
		c.GetString("user_id"),
		form.File[KindImage.Field()],
		form.File[KindIntroVideo.Field()],
	)
	if err != nil {
		h.RenderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, files)
}

// DeleteCourseFiles godoc
// @Summary Delete files from an aborted course creation
// @Tags Admin Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400,500 {object} map[string]interface{}
// @Router /admin/delete-course-files [post]
func (h *Handler) DeleteCourseFiles(c *gin.Context) {
	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Field(c, http.StatusBadRequest, "files", "Files must be a list of file identifiers")
		return
	}

	res, err := h.service.Cleanup(c.Request.Context(), req.Files)
	if err != nil {
		h.log.Error().Err(err).Strs("files", req.Files).Msg("course file cleanup failed")
		response.Error(c, http.StatusInternalServerError, "CLEANUP_FAILED", "Failed to delete course files")
		return
	}

	response.Success(c, http.StatusOK, res)
}

// ParseMultipart parses a multipart body capped at maxFiles plus some
// overhead. On failure it writes the error response and returns false.
func ParseMultipart(c *gin.Context, maxFiles int64) (*multipart.Form, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFiles+multipartOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Field(c, http.StatusRequestEntityTooLarge, "file", "Upload exceeds the maximum allowed size")
			return nil, false
		}
		response.Field(c, http.StatusBadRequest, "file", "Request must be multipart/form-data")
		return nil, false
	}
	return form, true
}

// RenderError maps service errors of this package to responses.
func (h *Handler) RenderError(c *gin.Context, err error) {
	if verr, ok := apperr.AsValidation(err); ok {
		status := http.StatusBadRequest
		if errors.Is(err, ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		response.FieldErrors(c, status, verr.Fields)
		return
	}

	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("upload failed")
	response.Error(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store uploaded files")
}
