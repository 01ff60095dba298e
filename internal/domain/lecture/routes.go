package lecture

import "github.com/gin-gonic/gin"

func RegisterRoutes(admin *gin.RouterGroup, h *Handler) {
	courses := admin.Group("/courses/:courseId/lectures")
	{
		courses.GET("", h.List)
		courses.POST("", h.Add)
		courses.POST("/upload-video", h.UploadVideo)
		courses.GET("/:lectureId", h.Get)
		courses.PUT("/:lectureId", h.Update)
	}

	lectures := admin.Group("/lectures")
	{
		lectures.PUT("/reorder", h.Reorder)
		lectures.DELETE("/:lectureId", h.Delete)
		lectures.PUT("/:lectureId/hidden", h.ToggleHidden)
	}
}
