package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	"github.com/advancedalgos/teams-api/internal/domain/repository"
)

const uniqueViolation = "23505"

type TeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation &&
		(constraint == "" || pgErr.ConstraintName == constraint)
}

// CreateAggregate writes the owner member, team, profile, agent and owning
// membership in a single transaction. Nothing commits unless everything
// does; the caller retries the whole operation on failure.
func (r *TeamRepository) CreateAggregate(ctx context.Context, t *entity.Team, owner *entity.Member, ownerEmail string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO members (auth_subject, alias, visible, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (auth_subject) DO UPDATE SET updated_at = now()
		RETURNING id, alias, visible, status, created_at, updated_at
	`, owner.AuthSubject, owner.Alias, owner.Visible, owner.Status)
	if err := row.Scan(&owner.ID, &owner.Alias, &owner.Visible, &owner.Status,
		&owner.CreatedAt, &owner.UpdatedAt); err != nil {
		return err
	}

	row = tx.QueryRow(ctx, `
		INSERT INTO teams (name, slug, owner_subject, status, status_reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, t.Name, t.Slug, t.OwnerSubject, t.Status, t.StatusReason)
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if isUniqueViolation(err, "teams_slug_key") {
			return domain.ErrSlugTaken
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO team_profiles (team_id, avatar, banner, motto, description)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Profile.Avatar, t.Profile.Banner, t.Profile.Motto, t.Profile.Description); err != nil {
		return err
	}

	t.Agent.TeamID = t.ID
	row = tx.QueryRow(ctx, `
		INSERT INTO agents (team_id, name, slug, kind, avatar, status, status_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, t.ID, t.Agent.Name, t.Agent.Slug, t.Agent.Kind, t.Agent.Avatar,
		t.Agent.Status, t.Agent.StatusReason)
	if err := row.Scan(&t.Agent.ID, &t.Agent.CreatedAt, &t.Agent.UpdatedAt); err != nil {
		return err
	}

	ms := entity.Membership{
		TeamID:   t.ID,
		MemberID: owner.ID,
		Email:    ownerEmail,
		Role:     entity.RoleOwner,
		Status:   entity.MembershipActive,
		Reason:   "Created team " + t.Name,
	}
	row = tx.QueryRow(ctx, `
		INSERT INTO memberships (team_id, member_id, email, role, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, ms.TeamID, ms.MemberID, ms.Email, ms.Role, ms.Status, ms.Reason)
	if err := row.Scan(&ms.ID, &ms.CreatedAt, &ms.UpdatedAt); err != nil {
		return err
	}
	t.Memberships = []entity.Membership{ms}

	return tx.Commit(ctx)
}

func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (*entity.Team, error) {
	return r.getAggregate(ctx, `WHERE t.slug = $1`, slug)
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*entity.Team, error) {
	return r.getAggregate(ctx, `WHERE t.id = $1`, id)
}

func (r *TeamRepository) getAggregate(ctx context.Context, where string, arg any) (*entity.Team, error) {
	t := &entity.Team{}
	row := r.pool.QueryRow(ctx, `
		SELECT t.id, t.name, t.slug, t.owner_subject, t.status, t.status_reason,
		       t.created_at, t.updated_at,
		       p.avatar, p.banner, p.motto, p.description
		FROM teams t
		JOIN team_profiles p ON p.team_id = t.id `+where, arg)
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.OwnerSubject, &t.Status, &t.StatusReason,
		&t.CreatedAt, &t.UpdatedAt,
		&t.Profile.Avatar, &t.Profile.Banner, &t.Profile.Motto, &t.Profile.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}

	row = r.pool.QueryRow(ctx, `
		SELECT id, team_id, name, slug, kind, avatar, status, status_reason, created_at, updated_at
		FROM agents WHERE team_id = $1
		ORDER BY created_at LIMIT 1
	`, t.ID)
	if err := row.Scan(&t.Agent.ID, &t.Agent.TeamID, &t.Agent.Name, &t.Agent.Slug,
		&t.Agent.Kind, &t.Agent.Avatar, &t.Agent.Status, &t.Agent.StatusReason,
		&t.Agent.CreatedAt, &t.Agent.UpdatedAt); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, team_id, COALESCE(member_id::text, ''), email, role, status, reason,
		       created_at, updated_at
		FROM memberships WHERE team_id = $1
		ORDER BY created_at
	`, t.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m entity.Membership
		if err := rows.Scan(&m.ID, &m.TeamID, &m.MemberID, &m.Email, &m.Role, &m.Status,
			&m.Reason, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		t.Memberships = append(t.Memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

const listSelect = `
	SELECT t.id, t.name, t.slug, t.owner_subject, t.status, t.status_reason,
	       t.created_at, t.updated_at,
	       p.avatar, p.banner, p.motto, p.description
	FROM teams t
	JOIN team_profiles p ON p.team_id = t.id
`

func (r *TeamRepository) List(ctx context.Context, limit, offset int) ([]entity.Team, error) {
	rows, err := r.pool.Query(ctx, listSelect+`
		ORDER BY t.updated_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanTeams(rows)
}

func (r *TeamRepository) ListByRole(ctx context.Context, authSubject string, roles []entity.Role) ([]entity.Team, error) {
	rs := make([]string, len(roles))
	for i, role := range roles {
		rs[i] = string(role)
	}
	rows, err := r.pool.Query(ctx, listSelect+`
		WHERE t.id IN (
			SELECT ms.team_id
			FROM memberships ms
			JOIN members m ON m.id = ms.member_id
			WHERE m.auth_subject = $1 AND ms.role = ANY($2) AND ms.status = 'ACTIVE'
		)
		ORDER BY t.updated_at DESC
	`, authSubject, rs)
	if err != nil {
		return nil, err
	}
	return scanTeams(rows)
}

func scanTeams(rows pgx.Rows) ([]entity.Team, error) {
	defer rows.Close()
	var teams []entity.Team
	for rows.Next() {
		var t entity.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.OwnerSubject, &t.Status, &t.StatusReason,
			&t.CreatedAt, &t.UpdatedAt,
			&t.Profile.Avatar, &t.Profile.Banner, &t.Profile.Motto, &t.Profile.Description); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *TeamRepository) MembershipFor(ctx context.Context, teamID, authSubject string) (*entity.Membership, error) {
	m := &entity.Membership{}
	row := r.pool.QueryRow(ctx, `
		SELECT ms.id, ms.team_id, COALESCE(ms.member_id::text, ''), ms.email, ms.role,
		       ms.status, ms.reason, ms.created_at, ms.updated_at
		FROM memberships ms
		JOIN members m ON m.id = ms.member_id
		WHERE ms.team_id = $1 AND m.auth_subject = $2
	`, teamID, authSubject)
	if err := row.Scan(&m.ID, &m.TeamID, &m.MemberID, &m.Email, &m.Role,
		&m.Status, &m.Reason, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// UpsertInvitedMembership only rewrites rows still in INVITED state; an
// ACTIVE row keeps its original audit reason and the conflict surfaces as
// ErrAlreadyMember (the guarded DO UPDATE returns no row).
func (r *TeamRepository) UpsertInvitedMembership(ctx context.Context, teamID, email, reason string) (*entity.Membership, error) {
	m := &entity.Membership{TeamID: teamID, Email: email, Role: entity.RoleMember,
		Status: entity.MembershipInvited, Reason: reason}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO memberships (team_id, email, role, status, reason)
		VALUES ($1, $2, 'MEMBER', 'INVITED', $3)
		ON CONFLICT (team_id, email) DO UPDATE SET reason = $3, updated_at = now()
		WHERE memberships.status = 'INVITED'
		RETURNING id, role, status, created_at, updated_at
	`, teamID, email, reason)
	if err := row.Scan(&m.ID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, err
	}
	return m, nil
}

func (r *TeamRepository) UpdateProfile(ctx context.Context, slug string, p entity.TeamProfile) (*entity.Team, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE team_profiles p
		SET avatar = $2, banner = $3, motto = $4, description = $5
		FROM teams t
		WHERE t.id = p.team_id AND t.slug = $1
	`, slug, p.Avatar, p.Banner, p.Motto, p.Description)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() == 0 {
		return nil, domain.ErrTeamNotFound
	}
	return r.GetBySlug(ctx, slug)
}

func (r *TeamRepository) UpdateAgentAvatar(ctx context.Context, agentID, avatar string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE agents SET avatar = $2, updated_at = now() WHERE id = $1
	`, agentID, avatar)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, slug string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

var _ repository.TeamRepository = (*TeamRepository)(nil)
