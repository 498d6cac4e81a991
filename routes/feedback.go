package routes

import (
	"credcheck/controllers"

	"github.com/gin-gonic/gin"
)

func SetupFeedbackRoutes(router *gin.RouterGroup, feedback *controllers.FeedbackController) {
	router.POST("/vote", feedback.SubmitVote)
	router.GET("/votes", feedback.GetTally)
}
