package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Cors allows browser dashboards on the listed origins.
// With an empty list any origin may GET, but nothing else is granted.
func Cors(origins []string) gin.HandlerFunc {
	allowed := originSet(origins)
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodOptions {
			method = c.GetHeader("Access-Control-Request-Method")
		}

		origin := ""
		if len(allowed) > 0 {
			if o := c.GetHeader("Origin"); allowed[o] {
				origin = o
			}
		} else if method == http.MethodGet || method == http.MethodHead {
			origin = "*"
		}
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// WriteGuard protects routes that send transactions.
// The body must be declared as JSON so browsers preflight cross-origin calls,
// a browser Origin must be listed, and a non-empty token must be presented as a bearer token.
func WriteGuard(origins []string, token string) gin.HandlerFunc {
	allowed := originSet(origins)
	return func(c *gin.Context) {
		if c.ContentType() != gin.MIMEJSON {
			abort(c, http.StatusUnsupportedMediaType, "content type must be "+gin.MIMEJSON)
			return
		}
		if origin := c.GetHeader("Origin"); origin != "" && !allowed[origin] {
			abort(c, http.StatusForbidden, "origin not allowed")
			return
		}
		if token != "" {
			got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				abort(c, http.StatusUnauthorized, "invalid or missing bearer token")
				return
			}
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Code: -1, Msg: msg})
}

func originSet(origins []string) map[string]bool {
	set := make(map[string]bool, len(origins))
	for _, o := range origins {
		set[o] = true
	}
	return set
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
