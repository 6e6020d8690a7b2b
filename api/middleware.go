package api

import (
	"net/http"
	"strings"

	"github.com/andhikadk/smi-test/internal/auth"
	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	identityKey     = "identity"
	requestIDHeader = "X-Request-ID"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// RequestID tags every request so log lines can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortWith(c, http.StatusUnauthorized, "unauthenticated", "authorization required")
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFrom(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "unauthenticated", "authorization required")
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		abortWith(c, http.StatusForbidden, "forbidden", "insufficient permissions")
	}
}

func identityFrom(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*auth.Identity)
	return identity, ok && identity != nil
}

// actor returns the acting user id, or 0 when the request is anonymous.
func actor(c *gin.Context) int64 {
	if identity, ok := identityFrom(c); ok {
		return identity.UserID
	}
	return 0
}
