package middleware

import (
	"net/http"
	"strings"

	"solitaire-go/internal/auth"
	"solitaire-go/internal/config"

	"github.com/gin-gonic/gin"
)

// Context keys set by RequireAuth.
const (
	UserIDKey   = "userID"
	UsernameKey = "username"
)

// RequireAuth rejects requests without a valid token and stores the caller's
// identity in the gin context.
func RequireAuth(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, false)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := auth.ParseAndValidateToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

// TokenFromRequest looks for a token in the auth cookie, then an
// "Authorization: Bearer" header, then (if allowQuery) the token query param.
func TokenFromRequest(c *gin.Context, allowQuery bool) string {
	// The HttpOnly cookie is server-controlled, so it wins over JS-supplied headers.
	if v, err := c.Cookie(auth.AuthCookieName); err == nil {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	if authz := c.GetHeader("Authorization"); authz != "" {
		scheme, tok, ok := strings.Cut(authz, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if allowQuery {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}
