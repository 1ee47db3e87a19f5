package domain

import "errors"

// Sentinel errors shared by services, repositories and handlers. Handlers
// classify these into HTTP responses; repositories translate driver errors
// into them so callers never inspect pgconn codes themselves.
var (
	// ErrInvalidToken is returned for a forged or malformed credential,
	// either an external identity assertion or an invite token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a credential verified correctly but
	// its expiry has passed. Kept distinct from ErrInvalidToken so clients
	// can offer re-login / re-invite instead of a generic failure.
	ErrTokenExpired = errors.New("token expired")

	// ErrLookupFailed is returned when the remote identity service rejects
	// or fails a profile lookup.
	ErrLookupFailed = errors.New("identity lookup failed")

	// ErrLookupTimeout is returned when the remote identity service did not
	// answer within the configured deadline.
	ErrLookupTimeout = errors.New("identity lookup timed out")

	// ErrSlugTaken is returned when a team slug collides with an existing
	// team. A business outcome, not a crash; callers prompt for a new name.
	ErrSlugTaken = errors.New("team slug already taken")

	// ErrNotAuthorized is returned when the caller lacks the membership
	// role an operation requires.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAlreadyMember is returned when an invitation targets an email
	// that already holds an ACTIVE membership on the team. Re-inviting a
	// pending (INVITED) email is allowed and resends instead.
	ErrAlreadyMember = errors.New("already a team member")

	// ErrMemberNotFound is returned when no member exists for a subject or id.
	ErrMemberNotFound = errors.New("member not found")

	// ErrTeamNotFound is returned when no team exists for a slug or id.
	ErrTeamNotFound = errors.New("team not found")

	// ErrAgentNotFound is returned when no agent exists for an id.
	ErrAgentNotFound = errors.New("agent not found")
)
