package handlers

import (
	"errors"
	"net/http"

	"solitaire-go/internal/middleware"
	"solitaire-go/internal/models"

	"github.com/gin-gonic/gin"
)

func userIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// requireUserID writes a 401 and returns false when no user is attached.
func requireUserID(c *gin.Context) (int64, bool) {
	id, ok := userIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}

// bindJSON decodes the request body into dst. A body cut off by
// middleware.LimitBody reports ErrMessageTooLong, anything else ErrInvalidJSON.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return models.ErrMessageTooLong
	}
	return models.ErrInvalidJSON
}
