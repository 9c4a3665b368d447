package middlewares

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/delivery-services/utils"
)

// GuestBootstrapper makes sure the fallback guest account exists.
type GuestBootstrapper interface {
	EnsureGuest(ctx context.Context) error
}

// EnsureGuest runs the bootstrap before every request of the group.
func EnsureGuest(b GuestBootstrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := b.EnsureGuest(c.Request.Context()); err != nil {
			utils.RespondFailure(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
