package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHome is a liveness probe target.
func GetHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
