package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagelens/pagelens/audit"
	"github.com/pagelens/pagelens/models"
)

// Snapshot returns a handler for POST /api/v1/snapshot.
//
// Captures a page without running the generation stage; useful for
// debugging what evidence an audit would see.
func Snapshot(svc *audit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.SnapshotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SnapshotResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		snap, timing, err := svc.Snapshot(c.Request.Context(), &req)
		if err != nil {
			auditErr, ok := err.(*models.AuditError)
			if !ok {
				auditErr = models.NewAuditError(models.ErrCodeInternal, err.Error(), err)
			}
			c.JSON(mapErrorToStatus(auditErr), models.SnapshotResponse{
				Success: false,
				Error:   auditErr.ToDetail(),
				Timing: models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				},
			})
			return
		}

		c.JSON(http.StatusOK, models.SnapshotResponse{
			Success:  true,
			Snapshot: snap,
			Timing:   timing,
		})
	}
}
