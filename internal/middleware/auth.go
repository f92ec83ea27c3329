package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/internal/utils"
	"github.com/huangang/shiftledger/pkg/response"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRoles  = "roles"
)

// AuthRequired is a middleware that checks for a valid JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRoles, claims.Roles)

		c.Next()
	}
}

// AdminRequired is a middleware that checks for admin role
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

func GetRoles(c *gin.Context) []string {
	return c.GetStringSlice(ContextRoles)
}

// IsAdmin reports whether the token carries the admin role.
func IsAdmin(c *gin.Context) bool {
	for _, r := range GetRoles(c) {
		if r == models.RoleAdmin {
			return true
		}
	}
	return false
}
