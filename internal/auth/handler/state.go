package handler

import (
	"net/http"
	"time"

	"atelier-auth/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	stateCookieName    = "__oauth_state"
	returnToCookieName = "__oauth_return_to"
	flowTTL            = 5 * time.Minute
)

func (h *Handler) setFlowCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (h *Handler) generateState(c *gin.Context) (string, error) {
	state, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}
	h.setFlowCookie(c, stateCookieName, state, int(flowTTL.Seconds()))
	return state, nil
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}

	cookie, err := c.Request.Cookie(stateCookieName)
	if err != nil {
		return false
	}

	return cookie.Value == stateQuery
}

// rememberReturnTo keeps the caller's return path across the provider
// round trip. The value is sanitized again when it is used.
func (h *Handler) rememberReturnTo(c *gin.Context, returnTo string) {
	if returnTo == "" {
		return
	}
	h.setFlowCookie(c, returnToCookieName, returnTo, int(flowTTL.Seconds()))
}

func returnToFromCookie(c *gin.Context) string {
	cookie, err := c.Request.Cookie(returnToCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clearFlowCookies removes the single-use OAuth flow cookies.
func (h *Handler) clearFlowCookies(c *gin.Context) {
	for _, name := range []string{stateCookieName, pkceCookieName, returnToCookieName} {
		h.setFlowCookie(c, name, "", -1)
	}
}
