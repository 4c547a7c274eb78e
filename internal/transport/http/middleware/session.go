package middleware

import (
	"github.com/gin-gonic/gin"

	"go-account-service/internal/core/auth"
)

// Session decodes the signed identity cookie into the request context. A
// missing or garbled cookie is not an error: the request just proceeds
// anonymous and the per-action Auth gate rejects it if login is required.
func Session(s *auth.Sessioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := c.Cookie(s.CookieName)
		if err == nil {
			if claims := s.Validate(tok); claims != nil {
				c.Set("claims", claims)
				c.Set("userId", claims.UID)
				c.Set("authority", claims.Authority)
			}
		}
		c.Next()
	}
}

// Claims pulls the decoded session out of the context; nil when anonymous.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get("claims")
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
