package routes

import (
	"credcheck/controllers"

	"github.com/gin-gonic/gin"
)

func SetupAnalysisRoutes(router *gin.RouterGroup, analysis *controllers.AnalysisController, stream gin.HandlerFunc) {
	router.POST("/analyze", analysis.Analyze)
	if stream != nil {
		router.GET("/analyze/ws", stream)
	}
}
