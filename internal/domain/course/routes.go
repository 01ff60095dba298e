package course

import "github.com/gin-gonic/gin"

func RegisterRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.POST("/create-new-course", h.CreateCourse)
	admin.GET("/get-all-courses", h.GetAllCourses)
	admin.GET("/get-course-by-id/:courseId", h.GetCourseByID)
	admin.PUT("/update-course/:courseId", h.UpdateCourse)
	admin.DELETE("/delete-course/:courseId", h.DeleteCourse)
}
