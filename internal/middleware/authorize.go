package middleware

import (
	"github.com/gin-gonic/gin"

	"tierimage/internal/policy"
)

// RequireStaff stops non-staff callers before the handler runs.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.RequireStaff(Identity(c)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
