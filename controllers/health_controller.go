package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Health(projectName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Welcome to the " + projectName + "!",
		})
	}
}
