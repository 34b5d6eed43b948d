package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request with method, path, status, and
// duration. SSE requests log on disconnect, which is expected.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// securityHeaders sets standard security response headers.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// originCheck guards browser-facing endpoints against cross-origin access.
// Requests without an Origin header (curl, server-to-server) pass through;
// an empty allow-list admits any origin.
func (s *Server) originCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || len(s.cfg.Server.AllowedOrigins) == 0 {
			c.Next()
			return
		}
		for _, allowed := range s.cfg.Server.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Next()
				return
			}
		}
		abortError(c, http.StatusForbidden, "origin not allowed")
	}
}

// ingestAuth guards ingest endpoints with a bearer token when one is
// configured. Comparison is constant time.
func (s *Server) ingestAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.cfg.IngestToken()
		if token == "" {
			c.Next()
			return
		}

		const prefix = "Bearer "
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			abortError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		presented := strings.TrimPrefix(header, prefix)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			abortError(c, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		c.Next()
	}
}
