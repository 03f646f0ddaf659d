package routes

import (
	"github.com/BerniceZTT/consultsim/controllers"
	"github.com/BerniceZTT/consultsim/middleware"
	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

func RegisterRunRoutes(router *gin.Engine, h *controllers.Handler) {
	runs := router.Group("/api/runs")
	runs.Use(middleware.AuthMiddleware())

	runs.GET("/", h.ListRuns)
	runs.GET("/:id", h.GetRun)
	runs.POST("/", middleware.RequireRole(utils.RoleOperator), h.StartRun)
}
