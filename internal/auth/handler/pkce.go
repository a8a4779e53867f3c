package handler

import (
	"crypto/sha256"
	"encoding/base64"

	"atelier-auth/internal/utils"

	"github.com/gin-gonic/gin"
)

const pkceCookieName = "__oauth_pkce"

func (h *Handler) generatePKCE(c *gin.Context) (challenge string, err error) {
	verifier, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}

	h.setFlowCookie(c, pkceCookieName, verifier, int(flowTTL.Seconds()))
	return s256Challenge(verifier), nil
}

func s256Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func getPKCEVerifier(c *gin.Context) string {
	cookie, err := c.Request.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
