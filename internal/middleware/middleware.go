package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/models"
)

// CORS middleware for handling Cross-Origin Resource Sharing
func CORS(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "Cache-Control", "X-Requested-With", "X-Tenant-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// A wildcard cannot be combined with credentials in the origin list
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowOrigins = nil
		config.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(config)
}

// TenantMiddleware extracts tenant ID from headers
// NOTE: First checks if tenant_id was already set by IstioAuth middleware
// SECURITY: No default tenant fallback - requests without tenant context should be rejected upstream
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = c.GetHeader("X-Tenant-ID")
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"ip":        c.ClientIP(),
			"status":    c.Writer.Status(),
			"duration":  time.Since(startTime).String(),
			"tenant_id": c.GetString("tenant_id"),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

// ErrorHandler turns errors attached to the context into an error response
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			logger.WithError(err.Err).WithField("path", c.Request.URL.Path).Error("unhandled request error")

			c.JSON(-1, models.ErrorResponse{
				Error:   "Internal Server Error",
				Message: err.Error(),
			})
		}
	}
}
