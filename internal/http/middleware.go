package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sujalbistaa/cleancook/internal/metrics"
	"github.com/sujalbistaa/cleancook/internal/ratelimit"
)

// maxBodyBytes caps JSON, form and multipart request bodies.
const maxBodyBytes = 10 << 20

// SecurityHeadersMiddleware adds basic, sensible security headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevents clickjacking
		c.Header("X-Frame-Options", "SAMEORIGIN")
		// Prevents MIME-type sniffing
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		c.Header("X-DNS-Prefetch-Control", "off")
		c.Header("X-XSS-Protection", "0")
		// The web client runs on another origin and embeds uploaded images.
		c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; object-src 'none'; frame-ancestors 'self'")
		c.Next()
	}
}

// BodyLimitMiddleware rejects bodies larger than maxBodyBytes when they are read.
func BodyLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		}
		c.Next()
	}
}

// RateLimitMiddleware spends one unit of the caller's budget per request.
// Limiter errors let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		allowed, err := limiter.Allow(c.Request.Context(), callerID(c))
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if !allowed {
			metrics.RecordRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}

// RecoveryMiddleware turns a panic into the generic 500 body.
func RecoveryMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithField("panic", recovered).WithField("path", c.Request.URL.Path).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}
