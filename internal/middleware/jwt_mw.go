package middleware

import (
	"context"
	"strings"

	"account_service/internal/model"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authUser"

	// TokenCookie is the cookie carrying the session token
	TokenCookie = "token"
)

// Authenticator resolves a session token to its account
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Protect creates a middleware that only lets requests with a valid session
// token through. The token is read from the Authorization header, falling
// back to the token cookie.
func Protect(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), extractToken(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(AuthUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the account attached by Protect
func CurrentUser(c *gin.Context) (*model.User, bool) {
	val, exists := c.Get(AuthUserKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*model.User)
	return user, ok && user != nil
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 {
			return parts[1]
		}
		return ""
	}

	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
