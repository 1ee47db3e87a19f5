package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	repo "github.com/advancedalgos/teams-api/internal/domain/repository"
	"github.com/advancedalgos/teams-api/pkg/helpers"
	"github.com/advancedalgos/teams-api/pkg/mailer"
)

// InviteCodec issues and verifies invitation tokens.
type InviteCodec interface {
	Issue(email, teamSlug string, ttl time.Duration) (string, time.Time, error)
	Redeem(token string) (*helpers.InviteClaims, error)
}

// PendingMembership is what a redeemed invite resolves to. Redemption does
// not create the membership itself; the client completes that step with
// this claim in hand.
type PendingMembership struct {
	Email    string
	TeamSlug string
}

// InviteService issues and redeems team invitations.
type InviteService struct {
	Teams       repo.TeamRepository
	Members     repo.MemberRepository
	Codec       InviteCodec
	Publisher   EmailPublisher
	Logger      *logrus.Logger
	MailEnabled bool
	AcceptURL   string
}

func NewInviteService(teams repo.TeamRepository, members repo.MemberRepository, codec InviteCodec,
	pub EmailPublisher, logger *logrus.Logger, mailEnabled bool, acceptURL string) *InviteService {
	return &InviteService{
		Teams:       teams,
		Members:     members,
		Codec:       codec,
		Publisher:   pub,
		Logger:      logger,
		MailEnabled: mailEnabled,
		AcceptURL:   acceptURL,
	}
}

// IssuedInvite is the result of Invite: the signed token plus its expiry.
type IssuedInvite struct {
	Token     string
	Email     string
	TeamSlug  string
	ExpiresAt time.Time
}

// Invite issues an invitation token for email into the team. The inviter
// must hold an active OWNER or ADMIN membership. An INVITED membership row
// is recorded (idempotently, keyed by team+email) with an audit reason
// naming the inviter, and the invite email is enqueued fire-and-forget:
// a delivery failure never invalidates the issued token.
func (s *InviteService) Invite(ctx context.Context, inviterSubject, teamSlug, email string, ttl time.Duration) (*IssuedInvite, error) {
	t, err := s.Teams.GetBySlug(ctx, teamSlug)
	if err != nil {
		return nil, err
	}

	ms, err := s.Teams.MembershipFor(ctx, t.ID, inviterSubject)
	if err != nil {
		return nil, err
	}
	if ms == nil || ms.Status != entity.MembershipActive ||
		(ms.Role != entity.RoleOwner && ms.Role != entity.RoleAdmin) {
		return nil, domain.ErrNotAuthorized
	}

	inviter, err := s.Members.GetByAuthSubject(ctx, inviterSubject)
	if err != nil {
		return nil, err
	}

	reason := "Invited by " + inviter.Alias
	for _, existing := range t.Memberships {
		if existing.Email != email {
			continue
		}
		// An ACTIVE membership means this email already belongs to the
		// team; its audit reason must not be rewritten by an invite.
		if existing.Status == entity.MembershipActive {
			return nil, domain.ErrAlreadyMember
		}
		reason = "Invite resent by " + inviter.Alias
		break
	}
	if _, err := s.Teams.UpsertInvitedMembership(ctx, t.ID, email, reason); err != nil {
		return nil, err
	}

	token, exp, err := s.Codec.Issue(email, teamSlug, ttl)
	if err != nil {
		return nil, err
	}

	s.sendInviteEmail(ctx, email, t, inviter.Alias, token, exp)

	return &IssuedInvite{Token: token, Email: email, TeamSlug: teamSlug, ExpiresAt: exp}, nil
}

func (s *InviteService) sendInviteEmail(ctx context.Context, email string, t *entity.Team, inviterAlias, token string, exp time.Time) {
	if s.Publisher == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       email,
		Template: mailer.TemplateTeamInvite,
		Data: map[string]any{
			"TeamName":  t.Name,
			"TeamSlug":  t.Slug,
			"Inviter":   inviterAlias,
			"InviteURL": s.AcceptURL + "?token=" + token,
			"ExpiresAt": exp.UTC().Format(time.RFC3339),
		},
	}
	if err := s.Publisher.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"team":  t.Slug,
			"email": email,
		}).Warn("enqueue invite email failed")
	}
}

// Redeem verifies an invitation token and returns the pending membership
// claim. The token is self-contained, but the referenced team must still
// exist. Redeeming the same valid token again returns the same claim; the
// membership row written at issue time keeps the flow idempotent.
func (s *InviteService) Redeem(ctx context.Context, token string) (*PendingMembership, error) {
	claims, err := s.Codec.Redeem(token)
	if err != nil {
		if errors.Is(err, helpers.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	if _, err := s.Teams.GetBySlug(ctx, claims.Team); err != nil {
		return nil, err
	}

	return &PendingMembership{Email: claims.Email, TeamSlug: claims.Team}, nil
}
