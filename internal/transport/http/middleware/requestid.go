package middleware

import (
	"github.com/gin-gonic/gin"

	"go-account-service/pkg/utils"
)

// KeyRequestID doubles as the header name and the context key; the access
// log and error responses pick the id up from the context.
const KeyRequestID = "X-Request-ID"

// RequestID keeps an id handed in by the proxy, otherwise mints one in the
// same dashless form as audit entry ids.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" {
			rid = utils.NewID()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}
