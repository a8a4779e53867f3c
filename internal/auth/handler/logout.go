package handler

import (
	"net/http"

	"atelier-auth/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// logout is idempotent: it always clears the cookie and answers 204.
func (h *Handler) logout(c *gin.Context) {
	if sessionID := session.FromRequest(c.Request); sessionID != "" {
		if err := h.exchanger.SignOut(c.Request.Context(), sessionID); err != nil {
			h.log.Warn("session delete failed", zap.Error(err))
		}
	}

	session.ClearCookie(c.Writer, h.cookieOptions())
	c.Status(http.StatusNoContent)
}
