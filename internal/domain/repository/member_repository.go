package repository

import (
	"context"

	"github.com/advancedalgos/teams-api/internal/domain/entity"
)

// MemberRepository defines the interface for member persistence.
type MemberRepository interface {
	// Upsert inserts the member or, when auth_subject already exists,
	// returns the existing row. The operation must be atomic at the store
	// level; concurrent first-time binds for the same subject resolve to a
	// single row. An existing alias is preserved.
	Upsert(ctx context.Context, m *entity.Member) error
	GetByAuthSubject(ctx context.Context, authSubject string) (*entity.Member, error)
	GetByID(ctx context.Context, id string) (*entity.Member, error)
}
