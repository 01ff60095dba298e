package upload

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the course media routes on the admin group.
func RegisterRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.POST("/upload-course-file", h.UploadCourseFile)
	admin.POST("/delete-course-files", h.DeleteCourseFiles)
}
