package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *HTTPGinServer) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": "ai-chat",
	}
	if s.cache != nil {
		body["cache"] = s.cache.Stats()
	}
	c.JSON(http.StatusOK, body)
}
