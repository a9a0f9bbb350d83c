package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/internal/api/http/authctx"
	"github.com/authgate/authgate/internal/api/http/handler"
)

// RequireAuthenticated rejects anonymous requests on routes that need an
// identity. The classifier never rejects; this guard is where the
// authenticated-vs-not decision is enforced per route.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authctx.FromContext(c.Request.Context()); !ok {
			handler.Deny(c, "authentication required")
			return
		}
		c.Next()
	}
}
