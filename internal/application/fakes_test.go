package application

import (
	"context"
	"fmt"

	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	"github.com/advancedalgos/teams-api/internal/infrastructure/identity"
	"github.com/advancedalgos/teams-api/pkg/helpers"
	"github.com/advancedalgos/teams-api/pkg/mailer"
)

type fakeVerifier struct {
	id  helpers.Identity
	err error
}

func (f fakeVerifier) Verify(_ context.Context, _ string) (helpers.Identity, error) {
	return f.id, f.err
}

type fakeFetcher struct {
	profile identity.Profile
	err     error
	calls   int
}

func (f *fakeFetcher) FetchProfile(_ context.Context, _ string) (identity.Profile, error) {
	f.calls++
	if f.err != nil {
		return identity.Profile{}, f.err
	}
	return f.profile, nil
}

type fakePublisher struct {
	jobs []mailer.EmailJob
	err  error
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, body.(mailer.EmailJob))
	return nil
}

type fakeMemberRepo struct {
	bySubject map[string]*entity.Member
	upserts   int
	err       error
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{bySubject: map[string]*entity.Member{}}
}

func (f *fakeMemberRepo) Upsert(_ context.Context, m *entity.Member) error {
	if f.err != nil {
		return f.err
	}
	f.upserts++
	if existing, ok := f.bySubject[m.AuthSubject]; ok {
		*m = *existing
		return nil
	}
	m.ID = fmt.Sprintf("member-%d", len(f.bySubject)+1)
	cp := *m
	f.bySubject[m.AuthSubject] = &cp
	return nil
}

func (f *fakeMemberRepo) GetByAuthSubject(_ context.Context, subject string) (*entity.Member, error) {
	m, ok := f.bySubject[subject]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemberRepo) GetByID(_ context.Context, id string) (*entity.Member, error) {
	for _, m := range f.bySubject {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

type invitedCall struct {
	teamID, email, reason string
}

type fakeTeamRepo struct {
	teams       map[string]*entity.Team // keyed by slug
	memberships map[string]*entity.Membership

	createErr      error
	createCalls    int
	lastOwner      *entity.Member
	lastOwnerEmail string

	invited []invitedCall

	listLimit  int
	listOffset int

	deleted      []string
	agentUpdates map[string]string
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		teams:        map[string]*entity.Team{},
		memberships:  map[string]*entity.Membership{},
		agentUpdates: map[string]string{},
	}
}

func membershipKey(teamID, subject string) string { return teamID + "|" + subject }

func (f *fakeTeamRepo) addTeam(t *entity.Team) {
	f.teams[t.Slug] = t
}

func (f *fakeTeamRepo) grant(teamID, subject string, role entity.Role, status entity.MembershipStatus) {
	f.memberships[membershipKey(teamID, subject)] = &entity.Membership{
		TeamID: teamID,
		Role:   role,
		Status: status,
	}
}

func (f *fakeTeamRepo) CreateAggregate(_ context.Context, t *entity.Team, owner *entity.Member, ownerEmail string) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	t.ID = fmt.Sprintf("team-%d", len(f.teams)+1)
	t.Agent.ID = t.ID + "-agent"
	f.lastOwner = owner
	f.lastOwnerEmail = ownerEmail
	f.teams[t.Slug] = t
	f.grant(t.ID, owner.AuthSubject, entity.RoleOwner, entity.MembershipActive)
	return nil
}

func (f *fakeTeamRepo) GetBySlug(_ context.Context, slug string) (*entity.Team, error) {
	t, ok := f.teams[slug]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	return t, nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id string) (*entity.Team, error) {
	for _, t := range f.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrTeamNotFound
}

func (f *fakeTeamRepo) List(_ context.Context, limit, offset int) ([]entity.Team, error) {
	f.listLimit, f.listOffset = limit, offset
	return nil, nil
}

func (f *fakeTeamRepo) ListByRole(_ context.Context, _ string, _ []entity.Role) ([]entity.Team, error) {
	return nil, nil
}

func (f *fakeTeamRepo) MembershipFor(_ context.Context, teamID, subject string) (*entity.Membership, error) {
	ms, ok := f.memberships[membershipKey(teamID, subject)]
	if !ok {
		return nil, nil
	}
	return ms, nil
}

func (f *fakeTeamRepo) UpsertInvitedMembership(_ context.Context, teamID, email, reason string) (*entity.Membership, error) {
	f.invited = append(f.invited, invitedCall{teamID: teamID, email: email, reason: reason})
	return &entity.Membership{TeamID: teamID, Email: email, Status: entity.MembershipInvited, Reason: reason}, nil
}

func (f *fakeTeamRepo) UpdateProfile(_ context.Context, slug string, p entity.TeamProfile) (*entity.Team, error) {
	t, ok := f.teams[slug]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	t.Profile = p
	return t, nil
}

func (f *fakeTeamRepo) UpdateAgentAvatar(_ context.Context, agentID, avatar string) error {
	f.agentUpdates[agentID] = avatar
	return nil
}

func (f *fakeTeamRepo) Delete(_ context.Context, slug string) error {
	if _, ok := f.teams[slug]; !ok {
		return domain.ErrTeamNotFound
	}
	delete(f.teams, slug)
	f.deleted = append(f.deleted, slug)
	return nil
}
