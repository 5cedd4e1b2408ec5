package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/psychodraw/internal/middleware"
	"github.com/noah-isme/psychodraw/internal/service"
)

func sessionFromContext(c *gin.Context) *service.Session {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*service.Session)
	if !ok {
		return nil
	}
	return session
}
