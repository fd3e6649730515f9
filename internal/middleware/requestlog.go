package middleware

import (
  "time"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/synb/weather-backend/internal/logger"
)

type RequestLogMiddleware struct {
  log *logger.Logger
}

func NewRequestLogMiddleware(log *logger.Logger) *RequestLogMiddleware {
  middlewareLogger := log.With("middleware", "RequestLogMiddleware")
  return &RequestLogMiddleware{log: middlewareLogger}
}

func (rl *RequestLogMiddleware) LogRequests() gin.HandlerFunc {
  return func(c *gin.Context) {
    requestID := uuid.New().String()
    c.Set("request_id", requestID)
    c.Header("X-Request-ID", requestID)

    start := time.Now()
    c.Next()

    rl.log.Info("Request handled",
      "request_id", requestID,
      "method", c.Request.Method,
      "path", c.Request.URL.Path,
      "status", c.Writer.Status(),
      "duration_ms", time.Since(start).Milliseconds(),
    )
  }
}
