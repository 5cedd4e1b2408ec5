package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/psychodraw/internal/middleware"
	"github.com/noah-isme/psychodraw/internal/service"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
	"github.com/noah-isme/psychodraw/pkg/response"
)

type previewService interface {
	OpenPreview(token string) (*service.PreviewContent, error)
	ParseToken(token string) (string, error)
}

// PreviewHandler serves preview bytes behind signed URLs.
type PreviewHandler struct {
	previews   previewService
	cookieName string
}

// NewPreviewHandler constructs the handler.
func NewPreviewHandler(previews previewService, cookieName string) *PreviewHandler {
	return &PreviewHandler{previews: previews, cookieName: cookieName}
}

// Serve godoc
// @Summary Preview image for a selected drawing
// @Description The URL is revoked as soon as the drawing is replaced, cleared or its session ends.
// @Tags Previews
// @Produce image/webp
// @Param token path string true "Signed preview token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /previews/{token} [get]
func (h *PreviewHandler) Serve(c *gin.Context) {
	content, err := h.previews.OpenPreview(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	// A caller presenting its own session may only view that session's previews.
	if raw := middleware.SessionToken(c, h.cookieName); raw != "" {
		if id, err := h.previews.ParseToken(raw); err == nil && id != content.SessionID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "preview belongs to another session"))
			return
		}
	}

	c.Header("Content-Type", content.ContentType)
	c.Header("Cache-Control", "private, no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, "", content.ModTime, content.Reader)
}
