package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Error codes carried in the login page query string.
const (
	errAuthFailed         = "auth_failed"
	errOTPFailed          = "otp_failed"
	errOTPMissingParams   = "otp_missing_params"
	errNoSession          = "no_session"
	errNoUserAfterOTP     = "no_user_after_otp"
	errUserCreationFailed = "user_creation_failed"
)

const loginPath = "/login"

// loginURL builds /login?error=code plus any extra diagnostic parameters,
// all URL-encoded.
func loginURL(code string, extra url.Values) string {
	q := url.Values{}
	q.Set("error", code)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return loginPath + "?" + q.Encode()
}

func redirectToLogin(c *gin.Context, code string, extra url.Values) {
	c.Redirect(http.StatusFound, loginURL(code, extra))
}

func authFailed(c *gin.Context, status int, reason string) {
	redirectToLogin(c, errAuthFailed, url.Values{
		"status": {strconv.Itoa(status)},
		"reason": {reason},
	})
}

func otpFailed(c *gin.Context, reason string) {
	redirectToLogin(c, errOTPFailed, url.Values{"reason": {reason}})
}
