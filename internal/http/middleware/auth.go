package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

// AuthMiddleware guards the technician API with static API keys. With no keys configured
// every request passes, which is how local development runs.
type AuthMiddleware struct {
	log  *logger.Logger
	keys [][]byte
}

func NewAuthMiddleware(log *logger.Logger, keys []string) *AuthMiddleware {
	am := &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware")}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			am.keys = append(am.keys, []byte(k))
		}
	}
	return am
}

func (am *AuthMiddleware) Enabled() bool { return len(am.keys) > 0 }

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !am.Enabled() {
			c.Next()
			return
		}
		token := extractTokenFromAll(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		if !am.valid(token) {
			am.log.Warn("rejected api key", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) valid(token string) bool {
	for _, k := range am.keys {
		if subtle.ConstantTimeCompare(k, []byte(token)) == 1 {
			return true
		}
	}
	return false
}

// EventSource cannot set headers, so the SSE stream passes its key as ?token=.
func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return strings.TrimSpace(c.GetHeader("X-Api-Key"))
}
