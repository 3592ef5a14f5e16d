package routes

import (
	"net/http"
	"time"

	"legal-rag-chatbot/internal/health"

	"github.com/gin-gonic/gin"
)

// Readiness reports the last corpus probe.
type Readiness interface {
	Status() health.Status
}

// SetupHealthRoutes registers liveness and readiness. A nil probe makes /ready
// mirror /health.
func SetupHealthRoutes(router *gin.Engine, probe Readiness) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	router.GET("/ready", func(c *gin.Context) {
		if probe == nil {
			c.JSON(http.StatusOK, gin.H{"ready": true})
			return
		}
		st := probe.Status()
		code := http.StatusOK
		if !st.Ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, st)
	})
}
