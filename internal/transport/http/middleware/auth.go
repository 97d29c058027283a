package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
	"github.com/SOS-Tag/sos-tag-api/internal/usecase"
)

// Context keys set by the authentication middleware.
const (
	AccountIDKey = "account_id"
	RolesKey     = "roles"
)

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

func abortUnauthenticated(c *gin.Context) {
	appErr := apperror.NewUnauthorized(apperror.TypeUnauthenticated,
		"You need to be authenticated to access the requested resource.")
	c.AbortWithStatusJSON(http.StatusUnauthorized, appErr)
}

// RequireAuth validates the Authorization header and attaches the decoded
// identity to the request. A missing, malformed, mis-signed or expired token
// fails closed without invoking the wrapped handler.
func RequireAuth(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthenticated(c)
			return
		}

		claims, err := auth.ParseAccessToken(token)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		c.Set(AccountIDKey, claims.UserID)
		c.Set(RolesKey, claims.Roles)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid bearer token is present and
// lets the request through anonymously otherwise.
func OptionalAuth(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if claims, err := auth.ParseAccessToken(token); err == nil {
				c.Set(AccountIDKey, claims.UserID)
				c.Set(RolesKey, claims.Roles)
			}
		}
		c.Next()
	}
}

// RequireRole enforces role-based authorization. It runs only after
// RequireAuth populated the claims; an absent role produces the distinct
// authorization envelope.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, _ := c.Get(RolesKey)
		roleList, ok := roles.([]string)
		if ok {
			for _, r := range roleList {
				if r == role {
					c.Next()
					return
				}
			}
		}

		appErr := apperror.NewUnauthorized(apperror.TypeUnauthorized,
			"You are not authorized to access the requested resource.")
		c.AbortWithStatusJSON(http.StatusUnauthorized, appErr)
	}
}

// AccountID returns the authenticated account id attached to the request, or
// "" when the request is anonymous.
func AccountID(c *gin.Context) string {
	if id, ok := c.Get(AccountIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
