package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/internal/domain/entity"
	repo "github.com/advancedalgos/teams-api/internal/domain/repository"
	"github.com/advancedalgos/teams-api/pkg/helpers"
)

// AssertionVerifier validates an external identity assertion and extracts
// the identity it proves.
type AssertionVerifier interface {
	Verify(ctx context.Context, raw string) (helpers.Identity, error)
}

// MemberService authenticates external assertions and binds them to member
// records.
type MemberService struct {
	Repo     repo.MemberRepository
	Verifier AssertionVerifier
	Logger   *logrus.Logger
}

func NewMemberService(r repo.MemberRepository, v AssertionVerifier, logger *logrus.Logger) *MemberService {
	return &MemberService{Repo: r, Verifier: v, Logger: logger}
}

// Authenticate verifies the raw assertion and resolves or creates the
// member for its subject. Calling it twice with assertions for the same
// subject yields the same member.
func (s *MemberService) Authenticate(ctx context.Context, rawAssertion string) (*entity.Member, error) {
	id, err := s.Verifier.Verify(ctx, rawAssertion)
	if err != nil {
		if errors.Is(err, helpers.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	return s.Bind(ctx, id.Subject, id.Alias)
}

// Bind upserts the member for a verified subject. The alias hint only
// applies on first creation; an existing member keeps their alias.
func (s *MemberService) Bind(ctx context.Context, subject, aliasHint string) (*entity.Member, error) {
	if aliasHint == "" {
		aliasHint = subject
	}
	m := &entity.Member{
		AuthSubject: subject,
		Alias:       aliasHint,
		Visible:     true,
		Status:      entity.MemberActive,
	}
	if err := s.Repo.Upsert(ctx, m); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("subject", subject).Error("member upsert failed")
		}
		return nil, err
	}
	return m, nil
}

func (s *MemberService) GetBySubject(ctx context.Context, subject string) (*entity.Member, error) {
	return s.Repo.GetByAuthSubject(ctx, subject)
}

func (s *MemberService) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	return s.Repo.GetByID(ctx, id)
}
