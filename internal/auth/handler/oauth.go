package handler

import (
	"errors"
	"net/http"

	"atelier-auth/internal/auth"
	"atelier-auth/internal/team"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state, err := h.generateState(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start sign-in"})
		return
	}
	codeChallenge, err := h.generatePKCE(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start sign-in"})
		return
	}
	h.rememberReturnTo(c, c.Query("return_to"))

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, codeChallenge))
}

// callback completes an OAuth sign-in. Every failure ends in a redirect to
// the login page with error=auth_failed and the provider's status and reason.
func (h *Handler) callback(c *gin.Context) {
	providerName := c.Query("provider")

	// 1. Provider-reported error (user cancelled, consent denied, ...)
	if errParam := c.Query("error"); errParam != "" {
		reason := c.Query("error_description")
		if reason == "" {
			reason = errParam
		}
		h.log.Warn("oauth callback returned error",
			zap.String("provider", providerName),
			zap.String("error", errParam),
			zap.String("desc", reason),
		)
		authFailed(c, http.StatusBadRequest, reason)
		return
	}

	// 2. Flow integrity
	if !validateState(c) {
		authFailed(c, http.StatusBadRequest, "invalid state")
		return
	}

	code := c.Query("code")
	if code == "" {
		authFailed(c, http.StatusBadRequest, "missing code")
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		authFailed(c, http.StatusBadRequest, "missing pkce verifier")
		return
	}

	// 3. Exchange
	res, err := h.exchanger.ExchangeCode(c.Request.Context(), providerName, code, codeVerifier)
	if err != nil {
		var pe *auth.ProviderError
		if errors.As(err, &pe) {
			authFailed(c, pe.Status, pe.Message)
			return
		}
		h.log.Error("oauth exchange failed",
			zap.String("provider", providerName),
			zap.Error(err),
		)
		authFailed(c, http.StatusInternalServerError, "failed to resolve user")
		return
	}

	returnTo := returnToFromCookie(c)
	h.clearFlowCookies(c)

	// 4. Team state. The session cookie is only issued once the user
	// record exists.
	target, err := h.resolver.ResolveNextRoute(c.Request.Context(), res.Identity, returnTo)
	if err != nil {
		h.discardSession(c, res.Session.SessionID)
		redirectToLogin(c, errUserCreationFailed, nil)
		return
	}

	h.setSessionCookie(c, res.Session)

	h.log.Info("login success",
		zap.String("user_id", res.Identity.ID),
		zap.String("provider", res.Identity.Provider),
		zap.String("ip", c.ClientIP()),
	)

	// The preference cookie is only written once the user is fully set up;
	// team creation and selection redirect before it.
	if target.State != team.Ready {
		c.Redirect(http.StatusFound, target.Location)
		return
	}

	h.setPreferenceCookie(c, res.Identity.Provider)
	c.Redirect(http.StatusFound, target.Location)
}
