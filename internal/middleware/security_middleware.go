package middleware

import (
	"net/http"
	"strings"

	"pos-tienda/internal/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	KeySellerID = "sellerID"
	KeyUsername = "username"
	KeyRole     = "role"
)

// AuthMiddleware checks if the user has a valid JWT token
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get the token from the "Authorization" header
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "code": "unauthorized"})
			return
		}

		// 2. Remove the "Bearer " prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer", "code": "unauthorized"})
			return
		}

		// 3. Validate the token
		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "unauthorized"})
			return
		}

		// 4. Store seller info for the handlers
		c.Set(KeySellerID, claims.SellerID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyRole, claims.Role)

		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyRole)
		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource", "code": "forbidden"})
	}
}

// SellerID returns the authenticated seller, or 0 outside AuthMiddleware.
func SellerID(c *gin.Context) uint {
	v, ok := c.Get(KeySellerID)
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}
