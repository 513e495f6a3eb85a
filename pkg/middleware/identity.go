package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/response"
)

const (
	UsernameKey   = "username"
	UserHeaderKey = "User"
)

// RequireUser returns a Gin middleware that reads the acting participant
// from the User header. The header is trusted as-is; there is no session
// or token behind it. Browsers send non-ASCII names percent-encoded, so the
// value is decoded before use.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := normalizeUsername(c.GetHeader(UserHeaderKey))
		if username == "" {
			response.UnprocessableEntity(c, "missing user header")
			return
		}

		c.Set(UsernameKey, username)
		c.Next()
	}
}

// GetUsername extracts the acting username from Gin context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(UsernameKey); exists {
		return username.(string)
	}
	return ""
}

func normalizeUsername(raw string) string {
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}
