package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"tierimage/internal/policy"
)

const identityKey = "identity"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (policy.Identity, error)
}

// Auth resolves the caller once per request. Requests without a token
// carry the anonymous identity; requests with a bad token are rejected.
func Auth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := authn.Authenticate(c.Request.Context(), bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// Identity returns the caller attached by Auth.
func Identity(c *gin.Context) policy.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(policy.Identity); ok {
			return id
		}
	}
	return policy.Anonymous()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return strings.TrimSpace(token)
	}
	return ""
}
