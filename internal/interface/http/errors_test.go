package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/advancedalgos/teams-api/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrInvalidToken, http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrLookupTimeout, http.StatusGatewayTimeout},
		{domain.ErrLookupFailed, http.StatusBadGateway},
		{domain.ErrSlugTaken, http.StatusConflict},
		{domain.ErrAlreadyMember, http.StatusConflict},
		{domain.ErrNotAuthorized, http.StatusForbidden},
		{domain.ErrTeamNotFound, http.StatusNotFound},
		{domain.ErrMemberNotFound, http.StatusNotFound},
		{domain.ErrAgentNotFound, http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, msg := classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.NotEmpty(t, msg)
	}
}

func TestClassifyWrappedErrors(t *testing.T) {
	status, _ := classify(fmt.Errorf("%w: users service returned 502 Bad Gateway", domain.ErrLookupFailed))
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestClassifyDistinguishesTokenStates(t *testing.T) {
	_, invalidMsg := classify(domain.ErrInvalidToken)
	_, expiredMsg := classify(domain.ErrTokenExpired)
	assert.NotEqual(t, invalidMsg, expiredMsg)
}
