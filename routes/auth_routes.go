package routes

import (
	"github.com/BerniceZTT/consultsim/controllers"
	"github.com/BerniceZTT/consultsim/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes mounts login and token validation.
func RegisterAuthRoutes(router *gin.Engine, h *controllers.Handler) {
	auth := router.Group("/api/auth")

	auth.POST("/login", h.Login)
	auth.GET("/validate", middleware.AuthMiddleware(), h.ValidateToken)
}
