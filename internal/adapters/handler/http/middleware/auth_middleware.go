package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"

	ContextUserIDKey = "userID"
	ContextDataKey   = "dataKey"
	ContextGoalsKey  = "goalsKey"
	ContextUserEmail = "userEmail"
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}

// AuthMiddleware resolves the bearer token to a user and binds the request to
// that user's partitions.
func AuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			unauthorized(c, "authorization header required")
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || fields[0] != authorizationType {
			unauthorized(c, "invalid authorization header format")
			return
		}

		user, err := tokenService.ValidateToken(c.Request.Context(), fields[1])
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextDataKey, user.DataKey)
		c.Set(ContextGoalsKey, user.GoalsKey())

		c.Next()
	}
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, ContextUserIDKey)
}

// GetPartitions returns the progress and goals partition keys of the caller.
func GetPartitions(c *gin.Context) (progressKey, goalsKey string, ok bool) {
	progressKey, ok1 := getString(c, ContextDataKey)
	goalsKey, ok2 := getString(c, ContextGoalsKey)
	return progressKey, goalsKey, ok1 && ok2
}
