package auth

import (
	"errors"
	"net/http"
	"time"

	"declaration-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"

// RequireToken verifies the bearer token and injects its claims into the
// request context. Rejections carry no body; callers are expected to send the
// user back to login. It does not perform role checks; those belong to internal/rbac.
func RequireToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := BearerToken(c.GetHeader(authorizationHeader))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := m.Verify(c.Request.Context(), tok, time.Now())
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				logger.FromGin(c).Debug("token rejected", "err", err)
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			logger.FromGin(c).Error("token verification unavailable", "err", err)
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))

		// Also store on gin context for handler convenience.
		c.Set("username", claims.Username)
		c.Set("role", string(claims.Role))

		c.Next()
	}
}
