package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/advancedalgos/teams-api/internal/application"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	"github.com/advancedalgos/teams-api/internal/interface/middleware"
	"github.com/advancedalgos/teams-api/pkg/response"
	"github.com/advancedalgos/teams-api/pkg/validation"
)

type TeamHandler struct {
	Svc    *application.TeamService
	Logger *logrus.Logger
}

func NewTeamHandler(svc *application.TeamService, logger *logrus.Logger) *TeamHandler {
	return &TeamHandler{Svc: svc, Logger: logger}
}

type provisionTeamRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Slug      string `json:"slug" binding:"required,min=2,max=60,slug"`
	AgentName string `json:"agent_name" binding:"omitempty,min=2,max=100"`
	AgentSlug string `json:"agent_slug" binding:"omitempty,min=2,max=60,slug"`
}

type updateTeamProfileRequest struct {
	Motto       string `json:"motto" binding:"omitempty,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Avatar      string `json:"avatar" binding:"omitempty,url"`
	Banner      string `json:"banner" binding:"omitempty,url"`
}

type updateAgentRequest struct {
	Avatar string `json:"avatar" binding:"required,url"`
}

func membershipJSON(m entity.Membership) gin.H {
	return gin.H{
		"id":         m.ID,
		"email":      m.Email,
		"role":       m.Role,
		"status":     m.Status,
		"reason":     m.Reason,
		"created_at": m.CreatedAt,
	}
}

func teamJSON(t *entity.Team) gin.H {
	out := gin.H{
		"id":            t.ID,
		"name":          t.Name,
		"slug":          t.Slug,
		"owner_subject": t.OwnerSubject,
		"status":        t.Status,
		"status_reason": t.StatusReason,
		"profile": gin.H{
			"avatar":      t.Profile.Avatar,
			"banner":      t.Profile.Banner,
			"motto":       t.Profile.Motto,
			"description": t.Profile.Description,
		},
		"created_at": t.CreatedAt,
		"updated_at": t.UpdatedAt,
	}
	if t.Agent.ID != "" || t.Agent.Name != "" {
		out["agent"] = gin.H{
			"id":            t.Agent.ID,
			"name":          t.Agent.Name,
			"slug":          t.Agent.Slug,
			"kind":          t.Agent.Kind,
			"avatar":        t.Agent.Avatar,
			"status":        t.Agent.Status,
			"status_reason": t.Agent.StatusReason,
		}
	}
	if len(t.Memberships) > 0 {
		ms := make([]gin.H, 0, len(t.Memberships))
		for _, m := range t.Memberships {
			ms = append(ms, membershipJSON(m))
		}
		out["memberships"] = ms
	}
	return out
}

func teamListJSON(ts []entity.Team) []gin.H {
	out := make([]gin.H, 0, len(ts))
	for i := range ts {
		out = append(out, teamJSON(&ts[i]))
	}
	return out
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (h *TeamHandler) Provision(c *gin.Context) {
	var req provisionTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	subject := c.GetString(middleware.CtxAuthSubjectKey)
	t, err := h.Svc.Provision(c.Request.Context(), subject, application.ProvisionInput{
		Name:      req.Name,
		Slug:      req.Slug,
		AgentName: req.AgentName,
		AgentSlug: req.AgentSlug,
	})
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusCreated, teamJSON(t), "team created", nil)
}

func (h *TeamHandler) List(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	ts, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, teamListJSON(ts), "teams", map[string]any{"limit": limit, "offset": offset})
}

func (h *TeamHandler) GetBySlug(c *gin.Context) {
	t, err := h.Svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, teamJSON(t), "team", nil)
}

func (h *TeamHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	hits, err := h.Svc.Search(c.Request.Context(), q, intQuery(c, "size", 20))
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"query": q})
}

// MyTeams lists teams the caller belongs to, optionally filtered by role.
func (h *TeamHandler) MyTeams(c *gin.Context) {
	subject := c.GetString(middleware.CtxAuthSubjectKey)

	roles := []entity.Role{entity.RoleOwner, entity.RoleAdmin, entity.RoleMember}
	if raw := c.Query("role"); raw != "" {
		roles = roles[:0]
		for _, r := range strings.Split(raw, ",") {
			switch role := entity.Role(strings.TrimSpace(r)); role {
			case entity.RoleOwner, entity.RoleAdmin, entity.RoleMember:
				roles = append(roles, role)
			default:
				response.Error[any](c, http.StatusBadRequest, "unknown role", nil)
				return
			}
		}
	}

	ts, err := h.Svc.ListByRole(c.Request.Context(), subject, roles)
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, teamListJSON(ts), "teams", nil)
}

func (h *TeamHandler) UpdateProfile(c *gin.Context) {
	var req updateTeamProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	subject := c.GetString(middleware.CtxAuthSubjectKey)
	t, err := h.Svc.UpdateProfile(c.Request.Context(), subject, c.Param("slug"), application.UpdateProfileInput{
		Motto:       req.Motto,
		Description: req.Description,
		Avatar:      req.Avatar,
		Banner:      req.Banner,
	})
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, teamJSON(t), "profile updated", nil)
}

func (h *TeamHandler) UploadAvatar(c *gin.Context) {
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	defer file.Close()

	subject := c.GetString(middleware.CtxAuthSubjectKey)
	t, err := h.Svc.UploadAvatar(c.Request.Context(), subject, c.Param("slug"), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, teamJSON(t), "avatar updated", nil)
}

func (h *TeamHandler) UpdateAgent(c *gin.Context) {
	var req updateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	subject := c.GetString(middleware.CtxAuthSubjectKey)
	t, err := h.Svc.UpdateAgentAvatar(c.Request.Context(), subject, c.Param("slug"), req.Avatar)
	if err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, teamJSON(t), "agent updated", nil)
}

func (h *TeamHandler) Delete(c *gin.Context) {
	subject := c.GetString(middleware.CtxAuthSubjectKey)
	if err := h.Svc.Delete(c.Request.Context(), subject, c.Param("slug")); err != nil {
		status, msg := classify(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "team deleted", nil)
}
