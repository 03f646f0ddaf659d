package routes

import (
	"github.com/BerniceZTT/consultsim/controllers"
	"github.com/BerniceZTT/consultsim/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterConsultantRoutes(router *gin.Engine, h *controllers.Handler) {
	consultants := router.Group("/api/consultants")
	consultants.Use(middleware.AuthMiddleware())

	consultants.GET("/", h.ListConsultants)
	consultants.GET("/:id", h.GetConsultant)
}
