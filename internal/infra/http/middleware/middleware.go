// Package middleware holds the ops surface's gin middleware, adapted from
// the teacher's internal/http/middleware/middleware.go: RequestLogger,
// Recovery, and CORS are carried over near-verbatim, while the
// Supabase-specific JWT auth is generalized to a plain bearer-token check
// since this service has no user/organization tables of its own to
// enrich the request context with.
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"telemed-booking-core/internal/infra/logger"
)

// RequestLogger logs one structured line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		entry := log.WithFields(map[string]interface{}{
			"method":      method,
			"path":        path,
			"status_code": c.Writer.Status(),
			"duration":    time.Since(start).String(),
			"client_ip":   c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.Error("request completed with errors")
		} else {
			entry.Info("request completed")
		}
	}
}

// Recovery converts a panic into a 500 JSON response instead of crashing
// the process.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithFields(map[string]interface{}{"panic": recovered}).Error("panic recovered")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_SERVER_ERROR", "message": "internal server error"},
		})
	})
}

// CORS allows the configured origins, matching the teacher's allow-list
// idiom.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID stamps every request with an X-Request-ID, generating one if
// absent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = strings.ReplaceAll(time.Now().Format("20060102150405.000000"), ".", "")
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

// bookingClaims is the JWT payload issued to callers of the booking API.
type bookingClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// JWTAuth validates a bearer token against secret and sets "user_id" and
// "user_roles" in the gin context, generalized from the teacher's
// SupabaseAuthSimple (same HMAC-parsing shape, no downstream profile
// lookup since this service owns no user table).
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or malformed authorization header"},
			})
			c.Abort()
			return
		}

		claims := &bookingClaims{}
		parsed, err := jwt.NewParser(jwt.WithLeeway(5*time.Second)).ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid token"},
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("user_roles", claims.Roles)
		c.Next()
	}
}
