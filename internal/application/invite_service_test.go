package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	"github.com/advancedalgos/teams-api/pkg/helpers"
	"github.com/advancedalgos/teams-api/pkg/mailer"
)

func newInviteService(teams *fakeTeamRepo, members *fakeMemberRepo, pub *fakePublisher) *InviteService {
	svc := NewInviteService(teams, members, helpers.NewInviteCodec("test-secret", time.Hour),
		nil, nil, true, "https://app.test/invite")
	if pub != nil {
		svc.Publisher = pub
	}
	return svc
}

func inviteFixture(t *testing.T) (*fakeTeamRepo, *fakeMemberRepo, *entity.Team) {
	t.Helper()
	teams := newFakeTeamRepo()
	tm := existingTeam(teams)
	teams.grant(tm.ID, "auth0|ada", entity.RoleOwner, entity.MembershipActive)

	members := newFakeMemberRepo()
	require.NoError(t, members.Upsert(context.Background(), &entity.Member{
		AuthSubject: "auth0|ada", Alias: "ada", Visible: true, Status: entity.MemberActive,
	}))
	return teams, members, tm
}

func TestInviteIssuesToken(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	svc := newInviteService(teams, members, nil)

	inv, err := svc.Invite(context.Background(), "auth0|ada", tm.Slug, "new@member.dev", 0)
	require.NoError(t, err)
	assert.Equal(t, "new@member.dev", inv.Email)
	assert.Equal(t, tm.Slug, inv.TeamSlug)
	assert.NotEmpty(t, inv.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), inv.ExpiresAt, 5*time.Second)

	require.Len(t, teams.invited, 1)
	assert.Equal(t, tm.ID, teams.invited[0].teamID)
	assert.Equal(t, "Invited by ada", teams.invited[0].reason)
}

func TestInviteResendReason(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	tm.Memberships = []entity.Membership{{Email: "new@member.dev", Status: entity.MembershipInvited}}
	svc := newInviteService(teams, members, nil)

	_, err := svc.Invite(context.Background(), "auth0|ada", tm.Slug, "new@member.dev", 0)
	require.NoError(t, err)

	require.Len(t, teams.invited, 1)
	assert.Equal(t, "Invite resent by ada", teams.invited[0].reason)
}

func TestInviteActiveMemberRejected(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	tm.Memberships = []entity.Membership{{Email: "old@member.dev", Status: entity.MembershipActive,
		Reason: "Created team Alpha Squad"}}
	pub := &fakePublisher{}
	svc := newInviteService(teams, members, pub)

	_, err := svc.Invite(context.Background(), "auth0|ada", tm.Slug, "old@member.dev", 0)
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	// The existing membership's audit reason stays untouched.
	assert.Empty(t, teams.invited)
	assert.Empty(t, pub.jobs)
}

func TestInviteRequiresOwnerOrAdmin(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	teams.grant(tm.ID, "auth0|plain", entity.RoleMember, entity.MembershipActive)
	svc := newInviteService(teams, members, nil)

	_, err := svc.Invite(context.Background(), "auth0|plain", tm.Slug, "new@member.dev", 0)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = svc.Invite(context.Background(), "auth0|stranger", tm.Slug, "new@member.dev", 0)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	assert.Empty(t, teams.invited)
}

func TestInviteUnknownTeam(t *testing.T) {
	teams, members, _ := inviteFixture(t)
	svc := newInviteService(teams, members, nil)

	_, err := svc.Invite(context.Background(), "auth0|ada", "ghost", "new@member.dev", 0)
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
}

func TestInviteEnqueuesEmail(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	pub := &fakePublisher{}
	svc := newInviteService(teams, members, pub)

	inv, err := svc.Invite(context.Background(), "auth0|ada", tm.Slug, "new@member.dev", 0)
	require.NoError(t, err)

	require.Len(t, pub.jobs, 1)
	job := pub.jobs[0]
	assert.Equal(t, "new@member.dev", job.To)
	assert.Equal(t, mailer.TemplateTeamInvite, job.Template)
	assert.Equal(t, "ada", job.Data["Inviter"])
	assert.Equal(t, "https://app.test/invite?token="+inv.Token, job.Data["InviteURL"])
}

func TestInvitePublishFailureStillIssues(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	svc := newInviteService(teams, members, &fakePublisher{err: assert.AnError})

	inv, err := svc.Invite(context.Background(), "auth0|ada", tm.Slug, "new@member.dev", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, inv.Token)
}

func TestRedeemRoundtrip(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	svc := newInviteService(teams, members, nil)

	inv, err := svc.Invite(context.Background(), "auth0|ada", tm.Slug, "new@member.dev", 0)
	require.NoError(t, err)

	pm, err := svc.Redeem(context.Background(), inv.Token)
	require.NoError(t, err)
	assert.Equal(t, "new@member.dev", pm.Email)
	assert.Equal(t, tm.Slug, pm.TeamSlug)

	// Redeeming again yields the same claim.
	again, err := svc.Redeem(context.Background(), inv.Token)
	require.NoError(t, err)
	assert.Equal(t, pm, again)
}

func TestRedeemInvalidToken(t *testing.T) {
	teams, members, _ := inviteFixture(t)
	svc := newInviteService(teams, members, nil)

	_, err := svc.Redeem(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRedeemExpiredToken(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	svc := newInviteService(teams, members, nil)
	svc.Codec = expiredCodec{}

	_, err := svc.Redeem(context.Background(), tm.Slug)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestRedeemTeamGone(t *testing.T) {
	teams, members, tm := inviteFixture(t)
	svc := newInviteService(teams, members, nil)

	inv, err := svc.Invite(context.Background(), "auth0|ada", tm.Slug, "new@member.dev", 0)
	require.NoError(t, err)

	delete(teams.teams, tm.Slug)
	_, err = svc.Redeem(context.Background(), inv.Token)
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
}

type expiredCodec struct{}

func (expiredCodec) Issue(_, _ string, _ time.Duration) (string, time.Time, error) {
	return "", time.Time{}, nil
}

func (expiredCodec) Redeem(_ string) (*helpers.InviteClaims, error) {
	return nil, helpers.ErrTokenExpired
}
