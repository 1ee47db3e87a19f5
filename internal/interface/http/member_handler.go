package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/advancedalgos/teams-api/internal/application"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	"github.com/advancedalgos/teams-api/internal/interface/middleware"
	"github.com/advancedalgos/teams-api/pkg/response"
	"github.com/advancedalgos/teams-api/pkg/validation"
)

type MemberHandler struct {
	Svc    *application.MemberService
	Logger *logrus.Logger
}

func NewMemberHandler(svc *application.MemberService, logger *logrus.Logger) *MemberHandler {
	return &MemberHandler{Svc: svc, Logger: logger}
}

type authenticateRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

func memberJSON(m *entity.Member) gin.H {
	return gin.H{
		"id":           m.ID,
		"auth_subject": m.AuthSubject,
		"alias":        m.Alias,
		"visible":      m.Visible,
		"status":       m.Status,
		"created_at":   m.CreatedAt,
		"updated_at":   m.UpdatedAt,
	}
}

// Authenticate verifies an external identity assertion and binds (or
// rebinds) the member record for its subject.
func (h *MemberHandler) Authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	m, err := h.Svc.Authenticate(c.Request.Context(), req.IDToken)
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, memberJSON(m), "authenticated", nil)
}

func (h *MemberHandler) Me(c *gin.Context) {
	subject := c.GetString(middleware.CtxAuthSubjectKey)
	m, err := h.Svc.GetBySubject(c.Request.Context(), subject)
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, memberJSON(m), "member profile", nil)
}

func (h *MemberHandler) GetBySubject(c *gin.Context) {
	m, err := h.Svc.GetBySubject(c.Request.Context(), c.Param("authSubject"))
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	// Hidden members only expose themselves.
	if !m.Visible && m.AuthSubject != c.GetString(middleware.CtxAuthSubjectKey) {
		response.Error[any](c, http.StatusNotFound, "member not found", nil)
		return
	}
	response.Success(c, http.StatusOK, memberJSON(m), "member profile", nil)
}
