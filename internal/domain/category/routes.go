package category

import "github.com/gin-gonic/gin"

func RegisterRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.POST("/create-new-category", h.CreateCategory)
	admin.GET("/get-all-categories", h.ListCategories)
}
