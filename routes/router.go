package routes

import (
	"github.com/BerniceZTT/consultsim/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every API route on router.
func RegisterRoutes(router *gin.Engine, h *controllers.Handler) {
	RegisterAuthRoutes(router, h)
	RegisterRunRoutes(router, h)
	RegisterConsultantRoutes(router, h)
	RegisterProjectRoutes(router, h)

	router.GET("/api/health", h.Health)
	router.GET("/api/db-status", h.DBStatus)
}
