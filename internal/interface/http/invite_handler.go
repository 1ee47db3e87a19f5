package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/advancedalgos/teams-api/internal/application"
	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/internal/interface/middleware"
	"github.com/advancedalgos/teams-api/pkg/response"
	"github.com/advancedalgos/teams-api/pkg/validation"
)

type InviteHandler struct {
	Svc    *application.InviteService
	Logger *logrus.Logger
}

func NewInviteHandler(svc *application.InviteService, logger *logrus.Logger) *InviteHandler {
	return &InviteHandler{Svc: svc, Logger: logger}
}

type sendInviteRequest struct {
	Email      string `json:"email" binding:"required,email"`
	TTLSeconds int    `json:"ttl_seconds" binding:"omitempty,gte=60,lte=2592000"`
}

type redeemInviteRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *InviteHandler) Send(c *gin.Context) {
	var req sendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	subject := c.GetString(middleware.CtxAuthSubjectKey)
	inv, err := h.Svc.Invite(c.Request.Context(), subject, c.Param("slug"), req.Email, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"token":      inv.Token,
		"email":      inv.Email,
		"team_slug":  inv.TeamSlug,
		"expires_at": inv.ExpiresAt,
	}, "invite sent", nil)
}

// Redeem validates an invite token and returns the pending membership. An
// expired token is reported distinctly so the client can ask for a resend.
func (h *InviteHandler) Redeem(c *gin.Context) {
	var req redeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	pm, err := h.Svc.Redeem(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			response.Error[any](c, http.StatusGone, "invite expired", nil)
		case errors.Is(err, domain.ErrInvalidToken):
			response.Error[any](c, http.StatusBadRequest, "invalid invite token", nil)
		default:
			status, msg := classify(err)
			response.Error[any](c, status, msg, nil)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"email":     pm.Email,
		"team_slug": pm.TeamSlug,
	}, "invite valid", nil)
}
