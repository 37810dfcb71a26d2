package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagelens/pagelens/audit"
	"github.com/pagelens/pagelens/cache"
	"github.com/pagelens/pagelens/models"
)

// Audit returns a handler for POST /api/v1/audit.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup (only when max_age is set).
//  3. Service.Run → snapshot + metrics + generation.
//  4. Fill Timing, cache store, return 200.
func Audit(svc *audit.Service, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.AuditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.AuditResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		if err := req.AuditOptions.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, models.AuditResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		cacheKey := cache.Key(req.URL, req.Model, req.AuditOptions)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				// Stamp per-request fields on a copy; the cached entry
				// is shared across concurrent hits.
				hitResp := *cached
				hitResp.CacheStatus = "hit"
				hitResp.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, hitResp)
				return
			}
		}

		result, err := svc.Run(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		resp := &models.AuditResponse{
			Success:     true,
			Report:      result.Report,
			Backend:     result.Backend,
			FetchMethod: result.FetchMethod,
			Screenshots: result.Screenshots,
			Timing:      result.Timing,
		}

		if cc != nil && req.MaxAge > 0 {
			stored := *resp
			cc.Set(cacheKey, &stored)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps an AuditError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	auditErr, ok := err.(*models.AuditError)
	if !ok {
		auditErr = models.NewAuditError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(auditErr), models.AuditResponse{
		Success: false,
		Error:   auditErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.AuditError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeFetchFailed,
		models.ErrCodeLLMExhausted, models.ErrCodeReportParse:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
