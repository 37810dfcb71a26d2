package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagelens/pagelens/audit"
	"github.com/pagelens/pagelens/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when no browser binary could be resolved; audits still
// work via the static-fetch path but lose rendered evidence.
func Health(svc *audit.Service, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		browserOK := svc.BrowserAvailable()

		status := "healthy"
		if !browserOK {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:           status,
			Uptime:           time.Since(startTime).Round(time.Second).String(),
			Version:          "0.1.0",
			BrowserAvailable: browserOK,
		})
	}
}
