package admin

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/dashboard-stats", h.GetStats)
	admin.GET("/profile", h.GetProfile)
	admin.PUT("/update-profile", h.UpdateProfile)
}
