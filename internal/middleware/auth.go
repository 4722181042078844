package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness-service/internal/models"
	"wellness-service/internal/services"
)

// Authenticator resolves a raw token to a user and its claims
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *services.Claims, error)
}

const (
	userKey   = "auth_user"
	claimsKey = "auth_claims"
)

// Auth validates the `token` header and stores the user in the context
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing token header",
			})
			return
		}

		user, claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := http.StatusInternalServerError
			message := "Internal server error"
			if uerr, ok := services.IsUnauthorizedError(err); ok {
				status = http.StatusUnauthorized
				message = uerr.Error()
			}
			c.AbortWithStatusJSON(status, gin.H{
				"success": false,
				"message": message,
			})
			return
		}

		c.Set(userKey, user)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allow list
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authentication required",
			})
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "insufficient role",
		})
	}
}

// RequireVerified rejects accounts that have not verified their email
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.Verified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "email verification required",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(userKey); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentClaims returns the authenticated token claims, or nil
func CurrentClaims(c *gin.Context) *services.Claims {
	if v, exists := c.Get(claimsKey); exists {
		if claims, ok := v.(*services.Claims); ok {
			return claims
		}
	}
	return nil
}
