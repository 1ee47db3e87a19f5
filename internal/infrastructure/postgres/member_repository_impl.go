package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	"github.com/advancedalgos/teams-api/internal/domain/repository"
)

type MemberRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Upsert is a single constraint-backed statement, not read-then-write, so
// concurrent first-time binds for the same subject collapse into one row.
// The DO UPDATE only touches updated_at: an alias the member customized is
// never overwritten by re-authentication.
func (r *MemberRepository) Upsert(ctx context.Context, m *entity.Member) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO members (auth_subject, alias, visible, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (auth_subject) DO UPDATE SET updated_at = now()
		RETURNING id, alias, visible, status, created_at, updated_at
	`, m.AuthSubject, m.Alias, m.Visible, m.Status)

	return row.Scan(&m.ID, &m.Alias, &m.Visible, &m.Status, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MemberRepository) GetByAuthSubject(ctx context.Context, authSubject string) (*entity.Member, error) {
	return r.get(ctx, `WHERE auth_subject = $1`, authSubject)
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *MemberRepository) get(ctx context.Context, where string, arg any) (*entity.Member, error) {
	m := &entity.Member{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, auth_subject, alias, visible, status, created_at, updated_at
		FROM members `+where, arg)

	if err := row.Scan(&m.ID, &m.AuthSubject, &m.Alias, &m.Visible, &m.Status,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

var _ repository.MemberRepository = (*MemberRepository)(nil)
