package handler

import (
	"net/http"

	"atelier-auth/internal/middleware"
	"atelier-auth/internal/session"
	"atelier-auth/internal/team"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// launchTeam switches the caller's current team. It is reached by a
// top-level form post, so unauthenticated callers are sent to the login page.
func (h *Handler) launchTeam(c *gin.Context) {
	teamID := c.Query("teamId")
	if teamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "teamId is required"})
		return
	}

	identity, err := h.exchanger.CurrentIdentity(c.Request.Context(), session.FromRequest(c.Request))
	if err != nil {
		h.log.Error("session lookup failed", zap.Error(err))
	}
	if identity == nil {
		c.Redirect(http.StatusFound, loginPath)
		return
	}

	// teamId comes from the client; membership is always re-checked.
	member, err := h.teams.IsMember(c.Request.Context(), identity.ID, teamID)
	if err != nil {
		h.log.Error("membership check failed",
			zap.String("user_id", identity.ID),
			zap.String("team_id", teamID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member"})
		return
	}

	if err := h.teams.SetCurrentTeam(c.Request.Context(), identity.ID, teamID); err != nil {
		h.log.Error("current team update failed",
			zap.String("user_id", identity.ID),
			zap.String("team_id", teamID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not switch team"})
		return
	}

	c.Redirect(http.StatusFound, team.HomePath)
}

func (h *Handler) listTeams(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c.Request.Context())

	teams, err := h.teams.ListTeams(c.Request.Context(), identity.ID)
	if err != nil {
		h.log.Error("list teams failed", zap.String("user_id", identity.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load teams"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (h *Handler) me(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c.Request.Context())

	profile, err := h.teams.GetUserProfile(c.Request.Context(), identity.ID)
	if err != nil {
		h.log.Error("profile lookup failed", zap.String("user_id", identity.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	if profile == nil {
		profile = &team.UserRecord{ID: identity.ID, Email: identity.Email}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     profile,
		"provider": identity.Provider,
	})
}
