package handlers

import (
	"errors"
	"net/http"

	"github.com/advancedalgos/teams-api/internal/domain"
)

// classify maps domain errors to HTTP status and a client-facing message.
// Bad and expired tokens stay distinct so clients can offer re-login or a
// fresh invite instead of a generic failure.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, domain.ErrLookupTimeout):
		return http.StatusGatewayTimeout, "identity lookup timed out"
	case errors.Is(err, domain.ErrLookupFailed):
		return http.StatusBadGateway, "identity lookup failed"
	case errors.Is(err, domain.ErrSlugTaken):
		return http.StatusConflict, "team slug already taken"
	case errors.Is(err, domain.ErrAlreadyMember):
		return http.StatusConflict, "already a team member"
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden, "not authorized"
	case errors.Is(err, domain.ErrTeamNotFound):
		return http.StatusNotFound, "team not found"
	case errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound, "member not found"
	case errors.Is(err, domain.ErrAgentNotFound):
		return http.StatusNotFound, "agent not found"
	default:
		return http.StatusInternalServerError, "persistence failed"
	}
}
