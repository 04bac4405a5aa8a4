package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/pkg/logger"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "request_id"
	loggerKey    = "logger"
)

// quietPaths are polled by load balancers and not worth a log line.
var quietPaths = map[string]bool{"/health": true}

// LoggingMiddleware attaches a request-scoped logger and records one line
// per completed request. Wishlist slug and item id route params are added
// to every line so a contested item can be followed across requests.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		fields := map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"route":      c.FullPath(),
		}
		if slug := c.Param("slug"); slug != "" {
			fields["slug"] = slug
		}
		if itemID := c.Param("id"); itemID != "" {
			fields["item_id"] = itemID
		}
		log := logger.WithContext(fields)
		c.Set(loggerKey, log)

		c.Next()

		if quietPaths[c.Request.URL.Path] {
			return
		}

		status := c.Writer.Status()
		done := map[string]interface{}{
			"status_code": status,
			"latency_ms":  time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}
		if userID, ok := GetUserID(c); ok {
			done["user_id"] = userID.String()
		}
		if len(c.Errors) > 0 {
			done["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("Request failed", nil, done)
		case status >= 400:
			log.Warn("Request rejected", done)
		default:
			log.Info("Request completed", done)
		}
	}
}

// GetLoggerFromContext returns the request logger, or the global one outside
// a request.
func GetLoggerFromContext(c *gin.Context) *logger.Logger {
	if log, exists := c.Get(loggerKey); exists {
		if l, ok := log.(*logger.Logger); ok {
			return l
		}
	}
	return logger.Get()
}
