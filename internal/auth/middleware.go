package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	contextKeyUserID = "user_id"
	contextKeyEmail  = "user_email"
)

// UserIDFromContext returns the current user ID set by RequireToken. 0 if not set.
func UserIDFromContext(c *gin.Context) int64 {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return 0
	}
	id, ok := v.(int64)
	if !ok {
		return 0
	}
	return id
}

// EmailFromContext returns the current user email set by RequireToken. "" if not set.
func EmailFromContext(c *gin.Context) string {
	v, ok := c.Get(contextKeyEmail)
	if !ok {
		return ""
	}
	email, _ := v.(string)
	return email
}

// RequireToken returns a middleware that checks for a valid bearer token
// and sets the authenticated identity in context. If missing or invalid,
// responds with 401.
func RequireToken(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyEmail, claims.Email)
		c.Next()
	}
}
