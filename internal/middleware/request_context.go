package middleware

import (
	"shopcore/internal/reqctx"

	"github.com/gin-gonic/gin"
)

// RequestContext captures per-operation attribution (actor, client IP,
// channel) into the request's context.Context. It must run after JWTAuth
// on authenticated groups so the actor is available. The value lives and
// dies with the request — no ambient storage, nothing to tear down.
func RequestContext(channel reqctx.Channel) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := &reqctx.RequestContext{Channel: channel}

		if ip := reqctx.ClientIP(c.Request); ip != "" {
			rc.IP = &ip
		}
		if claims := GetClaims(c); claims != nil {
			username := claims.Username
			rc.Actor = &username
		}

		ctx := reqctx.With(c.Request.Context(), rc)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
