package middleware

import (
	"github.com/gin-gonic/gin"

	"tierimage/internal/apperrors"
)

// AbortWithError answers with the error envelope and records err on the
// context for the request logger.
func AbortWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.HTTPCode, gin.H{"error": appErr})
}
