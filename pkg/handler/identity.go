package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"

	ctxUserID   = "user_id"
	ctxUserName = "user_name"
)

// RequireUser resolves the caller from headers, or from query parameters
// for WebSocket upgrades where browsers cannot set headers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		name := strings.TrimSpace(c.GetHeader(HeaderUserName))
		if id == "" {
			id = strings.TrimSpace(c.Query("user_id"))
			if name == "" {
				name = strings.TrimSpace(c.Query("user_name"))
			}
		}
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderUserID})
			return
		}
		c.Set(ctxUserID, id)
		c.Set(ctxUserName, name)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func userName(c *gin.Context) string {
	return c.GetString(ctxUserName)
}
