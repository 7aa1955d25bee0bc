package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	auth "github.com/phillip/donation-portal-go/auth"
	models "github.com/phillip/donation-portal-go/models"
)

const (
	KeyUserID = "user_id"
	KeyRole   = "role"
	KeyPhone  = "phone"
	KeyEmail  = "email"
)

// AuthMiddleware rejects requests without a valid bearer token and stores its claims
// on the context.
func AuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := issuer.Validate(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyPhone, claims.Phone)
		c.Set(KeyEmail, claims.Email)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(KeyRole) == models.RoleAdmin
}

// CanAccessPhone reports whether the caller may read data belonging to phone.
// Admins may read any phone, donors only their own.
func CanAccessPhone(c *gin.Context, phone string) bool {
	if IsAdmin(c) {
		return true
	}
	own := c.GetString(KeyPhone)
	return own != "" && own == phone
}
