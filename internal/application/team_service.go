package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	repo "github.com/advancedalgos/teams-api/internal/domain/repository"
	"github.com/advancedalgos/teams-api/internal/infrastructure/identity"
	"github.com/advancedalgos/teams-api/pkg/helpers"
	"github.com/advancedalgos/teams-api/pkg/mailer"
)

// EmailPublisher enqueues email jobs for the worker. Satisfied by
// helpers.RabbitPublisher.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// TeamDefaults are the display assets applied when provisioning does not
// specify them.
type TeamDefaults struct {
	Avatar string
	Banner string
}

// TeamService orchestrates team provisioning and the team read/update
// surface.
type TeamService struct {
	Teams        repo.TeamRepository
	Identity     identity.ProfileFetcher
	Publisher    EmailPublisher
	GCS          *storage.Client
	GCSBucket    string
	ES           *elasticsearch.Client
	ESTeamsIndex string
	Logger       *logrus.Logger
	Defaults     TeamDefaults
	MailEnabled  bool
}

func NewTeamService(teams repo.TeamRepository, fetcher identity.ProfileFetcher, pub EmailPublisher,
	gcs *storage.Client, gcsBucket string, es *elasticsearch.Client, esIndex string,
	logger *logrus.Logger, defaults TeamDefaults, mailEnabled bool) *TeamService {
	return &TeamService{
		Teams:        teams,
		Identity:     fetcher,
		Publisher:    pub,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		ES:           es,
		ESTeamsIndex: esIndex,
		Logger:       logger,
		Defaults:     defaults,
		MailEnabled:  mailEnabled,
	}
}

type ProvisionInput struct {
	Name      string
	Slug      string
	AgentName string
	AgentSlug string
}

// Provision creates the full team aggregate for the requester. The profile
// lookup must succeed before anything is written; the aggregate itself is
// one transactional unit in the store, so a failure there leaves no rows
// behind and the caller retries the whole operation.
func (s *TeamService) Provision(ctx context.Context, requesterSubject string, in ProvisionInput) (*entity.Team, error) {
	profile, err := s.Identity.FetchProfile(ctx, requesterSubject)
	if err != nil {
		return nil, err
	}

	owner := &entity.Member{
		AuthSubject: requesterSubject,
		Alias:       profile.Alias,
		Visible:     true,
		Status:      entity.MemberActive,
	}
	t := &entity.Team{
		Name:         in.Name,
		Slug:         in.Slug,
		OwnerSubject: requesterSubject,
		Status:       entity.TeamActive,
		StatusReason: "Team created",
		Profile: entity.TeamProfile{
			Avatar: s.Defaults.Avatar,
			Banner: s.Defaults.Banner,
		},
		Agent: entity.Agent{
			Name:         in.AgentName,
			Slug:         in.AgentSlug,
			Kind:         entity.AgentTrader,
			Avatar:       s.Defaults.Avatar,
			Status:       "ACTIVE",
			StatusReason: "Cloned on team creation",
		},
	}

	if err := s.Teams.CreateAggregate(ctx, t, owner, profile.Email); err != nil {
		return nil, err
	}

	s.indexTeam(ctx, t)
	s.sendCreateConfirmation(ctx, profile, t)

	return t, nil
}

func (s *TeamService) sendCreateConfirmation(ctx context.Context, p identity.Profile, t *entity.Team) {
	if s.Publisher == nil || !s.MailEnabled || p.Email == "" {
		return
	}
	job := mailer.EmailJob{
		To:       p.Email,
		Template: mailer.TemplateTeamCreated,
		Data: map[string]any{
			"Alias":     p.Alias,
			"TeamName":  t.Name,
			"AgentName": t.Agent.Name,
		},
	}
	if err := s.Publisher.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("team", t.Slug).Warn("enqueue team confirmation failed")
	}
}

func (s *TeamService) GetBySlug(ctx context.Context, slug string) (*entity.Team, error) {
	return s.Teams.GetBySlug(ctx, slug)
}

func (s *TeamService) GetByID(ctx context.Context, id string) (*entity.Team, error) {
	return s.Teams.GetByID(ctx, id)
}

func (s *TeamService) List(ctx context.Context, limit, offset int) ([]entity.Team, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Teams.List(ctx, limit, offset)
}

func (s *TeamService) ListByRole(ctx context.Context, subject string, roles []entity.Role) ([]entity.Team, error) {
	if len(roles) == 0 {
		roles = []entity.Role{entity.RoleOwner, entity.RoleAdmin, entity.RoleMember}
	}
	return s.Teams.ListByRole(ctx, subject, roles)
}

// requireRole loads the team and checks the subject holds an active
// membership with one of the wanted roles.
func (s *TeamService) requireRole(ctx context.Context, subject, slug string, roles ...entity.Role) (*entity.Team, error) {
	t, err := s.Teams.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	ms, err := s.Teams.MembershipFor(ctx, t.ID, subject)
	if err != nil {
		return nil, err
	}
	if ms == nil || ms.Status != entity.MembershipActive {
		return nil, domain.ErrNotAuthorized
	}
	for _, r := range roles {
		if ms.Role == r {
			return t, nil
		}
	}
	return nil, domain.ErrNotAuthorized
}

type UpdateProfileInput struct {
	Motto       string
	Description string
	Avatar      string
	Banner      string
}

// UpdateProfile replaces the team's display profile. Empty fields keep
// their current value. Requires OWNER or ADMIN.
func (s *TeamService) UpdateProfile(ctx context.Context, subject, slug string, in UpdateProfileInput) (*entity.Team, error) {
	t, err := s.requireRole(ctx, subject, slug, entity.RoleOwner, entity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	p := t.Profile
	if in.Motto != "" {
		p.Motto = in.Motto
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Avatar != "" {
		p.Avatar = in.Avatar
	}
	if in.Banner != "" {
		p.Banner = in.Banner
	}
	updated, err := s.Teams.UpdateProfile(ctx, slug, p)
	if err != nil {
		return nil, err
	}
	s.indexTeam(ctx, updated)
	return updated, nil
}

// UploadAvatar stores an avatar image in GCS and points the team profile at
// its public URL. Requires OWNER or ADMIN.
func (s *TeamService) UploadAvatar(ctx context.Context, subject, slug string, r io.Reader, filename, contentType string) (*entity.Team, error) {
	if _, err := s.requireRole(ctx, subject, slug, entity.RoleOwner, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("teams", slug, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}
	return s.UpdateProfile(ctx, subject, slug, UpdateProfileInput{Avatar: url})
}

// UpdateAgentAvatar changes the team agent's avatar. Requires OWNER or ADMIN.
func (s *TeamService) UpdateAgentAvatar(ctx context.Context, subject, slug, avatar string) (*entity.Team, error) {
	t, err := s.requireRole(ctx, subject, slug, entity.RoleOwner, entity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if t.Agent.ID == "" {
		return nil, domain.ErrAgentNotFound
	}
	if err := s.Teams.UpdateAgentAvatar(ctx, t.Agent.ID, avatar); err != nil {
		return nil, err
	}
	return s.Teams.GetBySlug(ctx, slug)
}

// Delete removes the team and every dependent row. Owner only.
func (s *TeamService) Delete(ctx context.Context, subject, slug string) error {
	if _, err := s.requireRole(ctx, subject, slug, entity.RoleOwner); err != nil {
		return err
	}
	if err := s.Teams.Delete(ctx, slug); err != nil {
		return err
	}
	s.removeFromIndex(ctx, slug)
	return nil
}

func (s *TeamService) indexTeam(ctx context.Context, t *entity.Team) {
	if s.ES == nil || s.ESTeamsIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          t.ID,
		"name":        t.Name,
		"slug":        t.Slug,
		"motto":       t.Profile.Motto,
		"description": t.Profile.Description,
		"avatar":      t.Profile.Avatar,
		"agent_name":  t.Agent.Name,
		"created_at":  t.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  t.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESTeamsIndex, DocumentID: t.Slug, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("team", t.Slug).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("team", t.Slug).Warn("es index response error")
	}
}

func (s *TeamService) removeFromIndex(ctx context.Context, slug string) {
	if s.ES == nil || s.ESTeamsIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESTeamsIndex, DocumentID: slug}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("team", slug).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match query over the teams index.
func (s *TeamService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESTeamsIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "slug^2", "motto", "description", "agent_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESTeamsIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
