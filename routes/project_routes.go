package routes

import (
	"github.com/BerniceZTT/consultsim/controllers"
	"github.com/BerniceZTT/consultsim/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterProjectRoutes(router *gin.Engine, h *controllers.Handler) {
	projectGroup := router.Group("/api/projects")
	projectGroup.Use(middleware.AuthMiddleware())

	projectGroup.GET("/", h.GetAllProjects)
	projectGroup.GET("/by-unit", h.GetProjectsByUnit)
	projectGroup.GET("/:id", h.GetProjectDetail)
}
