package repository

import (
	"context"

	"github.com/advancedalgos/teams-api/internal/domain/entity"
)

// TeamRepository defines the interface for team persistence.
type TeamRepository interface {
	// CreateAggregate persists the team together with its profile, agent
	// and owning membership in one transaction. Either every row commits
	// or none does. A slug collision returns domain.ErrSlugTaken.
	// The member for the owning membership is upserted by auth subject
	// inside the same transaction; ownerEmail is recorded on the OWNER
	// membership row.
	CreateAggregate(ctx context.Context, t *entity.Team, owner *entity.Member, ownerEmail string) error

	GetBySlug(ctx context.Context, slug string) (*entity.Team, error)
	GetByID(ctx context.Context, id string) (*entity.Team, error)
	List(ctx context.Context, limit, offset int) ([]entity.Team, error)
	// ListByRole returns teams where the subject holds one of the roles.
	ListByRole(ctx context.Context, authSubject string, roles []entity.Role) ([]entity.Team, error)

	// MembershipFor returns the subject's membership on the team, or nil
	// when the subject has none.
	MembershipFor(ctx context.Context, teamID, authSubject string) (*entity.Membership, error)

	// UpsertInvitedMembership records an INVITED membership for the email,
	// keyed by (team_id, email) so re-inviting updates the audit reason
	// instead of inserting a duplicate row.
	UpsertInvitedMembership(ctx context.Context, teamID, email, reason string) (*entity.Membership, error)

	UpdateProfile(ctx context.Context, slug string, p entity.TeamProfile) (*entity.Team, error)
	UpdateAgentAvatar(ctx context.Context, agentID, avatar string) error
	Delete(ctx context.Context, slug string) error
}
