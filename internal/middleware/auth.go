package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/welshlidar/portal/api/internal/models"
	"github.com/welshlidar/portal/api/internal/repository"
)

const (
	// UserKey is the context key for the authenticated user
	UserKey = "user"
)

// Auth creates a middleware that resolves the bearer token from the
// Authorization header to a portal user via the sessions table. Requests
// without a live session are rejected with 401. Session issuance is handled
// by the auth service in front of this API.
func Auth(sessions repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "Authentication credentials were not provided")
			return
		}

		user, err := sessions.UserByToken(c.Request.Context(), token)
		if err != nil {
			log := GetLogger(c)
			if log != nil {
				log.Error("Failed to resolve session", err, nil)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":       "INTERNAL_SERVER_ERROR",
					"message":    "Failed to authenticate request",
					"request_id": GetRequestID(c),
				},
			})
			return
		}
		if user == nil {
			unauthorized(c, "Invalid or expired session")
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// GetUser retrieves the authenticated user from the Gin context.
// Returns nil if the request was not authenticated.
func GetUser(c *gin.Context) *models.User {
	if value, exists := c.Get(UserKey); exists {
		if user, ok := value.(*models.User); ok {
			return user
		}
	}
	return nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
