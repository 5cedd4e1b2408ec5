package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/psychodraw/internal/service"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
	"github.com/noah-isme/psychodraw/pkg/logger"
	"github.com/noah-isme/psychodraw/pkg/response"
)

// ContextSessionKey is the gin context key storing the resolved *service.Session.
const ContextSessionKey = "wizardSession"

type sessionResolver interface {
	Resolve(token string) (*service.Session, error)
}

// Session requires a live wizard session, taken from the bearer header or the session cookie.
func Session(sessions sessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.ErrSessionNotFound)
			c.Abort()
			return
		}

		session, err := sessions.Resolve(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(logger.ContextSessionKey, session.ID)
		c.Next()
	}
}

// SessionToken extracts the session token. The Authorization header wins over the cookie.
func SessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
