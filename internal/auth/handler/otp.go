package handler

import (
	"errors"
	"net/http"
	"strings"

	"atelier-auth/internal/auth"
	"atelier-auth/internal/auth/exchange"
	"atelier-auth/internal/redirect"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type sendOTPRequest struct {
	Email string `form:"email" json:"email" binding:"required,email"`
}

type verifyOTPForm struct {
	Email      string `form:"email"`
	Token      string `form:"token"`
	ReturnTo   string `form:"return_to"`
	RedirectTo string `form:"redirect_to"`
}

func (f verifyOTPForm) complete() bool {
	return strings.TrimSpace(f.Email) != "" && strings.TrimSpace(f.Token) != ""
}

func (h *Handler) sendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	if err := h.exchanger.SendOTP(c.Request.Context(), req.Email); err != nil {
		h.log.Error("otp issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send code"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "code_sent"})
}

// verifyOTP is the API-route variant: it runs the team resolver and
// redirects per team state.
func (h *Handler) verifyOTP(c *gin.Context) {
	var form verifyOTPForm
	_ = c.ShouldBind(&form)
	if !form.complete() {
		redirectToLogin(c, errOTPMissingParams, nil)
		return
	}

	res, ok := h.exchangeOTP(c, form)
	if !ok {
		return
	}

	h.setPreferenceCookie(c, exchange.ProviderOTP)

	target, err := h.resolver.ResolveNextRoute(c.Request.Context(), res.Identity, form.ReturnTo)
	if err != nil {
		h.discardSession(c, res.Session.SessionID)
		redirectToLogin(c, errUserCreationFailed, nil)
		return
	}

	h.setSessionCookie(c, res.Session)
	c.Redirect(http.StatusFound, target.Location)
}

// verifyOTPAction is the form-action variant: after bootstrap it goes
// straight to the sanitized redirect_to.
func (h *Handler) verifyOTPAction(c *gin.Context) {
	var form verifyOTPForm
	_ = c.ShouldBind(&form)
	if !form.complete() {
		redirectToLogin(c, errOTPMissingParams, nil)
		return
	}

	res, ok := h.exchangeOTP(c, form)
	if !ok {
		return
	}

	h.setPreferenceCookie(c, exchange.ProviderOTP)

	if err := h.resolver.Bootstrap(c.Request.Context(), res.Identity); err != nil {
		h.discardSession(c, res.Session.SessionID)
		redirectToLogin(c, errUserCreationFailed, nil)
		return
	}

	h.setSessionCookie(c, res.Session)
	c.Redirect(http.StatusFound, redirect.Sanitize(form.RedirectTo))
}

// exchangeOTP verifies the code and opens a session. On failure it writes
// the login redirect and reports false. The caller issues the cookie.
func (h *Handler) exchangeOTP(c *gin.Context, form verifyOTPForm) (*exchange.Result, bool) {
	res, err := h.exchanger.VerifyOTP(c.Request.Context(), form.Email, strings.TrimSpace(form.Token))
	if err != nil {
		var pe *auth.ProviderError
		switch {
		case errors.As(err, &pe):
			otpFailed(c, pe.Message)
		case errors.Is(err, auth.ErrNoSession):
			redirectToLogin(c, errNoSession, nil)
		case errors.Is(err, auth.ErrNoIdentity):
			redirectToLogin(c, errNoUserAfterOTP, nil)
		default:
			h.log.Error("otp verification failed", zap.Error(err))
			otpFailed(c, "internal error")
		}
		return nil, false
	}

	return res, true
}
