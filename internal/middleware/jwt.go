package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-webinar/recording-ingest/internal/auth"
	"github.com/aura-webinar/recording-ingest/pkg/response"
)

// ContextTokenID is the key for the validated token id in gin context.
const ContextTokenID = "token_id"

// SchedulerJWT returns a middleware that requires a valid scheduler bearer token.
// A service without a secret lets every request through.
func SchedulerJWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !jwtService.Enabled() {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortUnauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.AbortUnauthorized(c, "invalid authorization header")
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.AbortUnauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ContextTokenID, claims.ID)
		c.Next()
	}
}
