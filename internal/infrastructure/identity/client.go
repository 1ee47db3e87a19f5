package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/pkg/helpers"
)

// Profile is what the remote users service knows about a subject.
type Profile struct {
	Alias string `json:"alias"`
	Email string `json:"email"`
}

// ProfileFetcher is the lookup contract the orchestrator depends on.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, authSubject string) (Profile, error)
}

const profileQuery = `query users_UserByAuthId($authId: String!) {
  users_UserByAuthId(authId: $authId) {
    id
    alias
    email
  }
}`

// Client fetches member profiles from the remote users service. Every call
// is bounded by the configured timeout; a read-through Redis cache absorbs
// repeat lookups for the same subject.
type Client struct {
	url      string
	timeout  time.Duration
	http     *http.Client
	rdb      *redis.Client
	cacheTTL time.Duration
	logger   *logrus.Logger
}

func NewClient(url string, timeout time.Duration, rdb *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		url:      url,
		timeout:  timeout,
		http:     &http.Client{},
		rdb:      rdb,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func profileKey(subject string) string { return "identity:profile:" + subject }

type gqlRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type gqlResponse struct {
	Data struct {
		User *Profile `json:"users_UserByAuthId"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchProfile resolves alias and email for a subject. A timeout surfaces
// as domain.ErrLookupTimeout, anything else as domain.ErrLookupFailed, so
// the orchestrator can report the two distinctly.
func (c *Client) FetchProfile(ctx context.Context, authSubject string) (Profile, error) {
	if c.rdb != nil {
		var cached Profile
		if ok, err := helpers.RedisGetJSON(ctx, c.rdb, profileKey(authSubject), &cached); err == nil && ok {
			return cached, nil
		}
	}

	body, err := json.Marshal(gqlRequest{
		Query:     profileQuery,
		Variables: map[string]string{"authId": authSubject},
	})
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Profile{}, domain.ErrLookupTimeout
		}
		return Profile{}, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%w: users service returned %s", domain.ErrLookupFailed, res.Status)
	}

	var parsed gqlResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	if len(parsed.Errors) > 0 {
		return Profile{}, fmt.Errorf("%w: %s", domain.ErrLookupFailed, parsed.Errors[0].Message)
	}
	if parsed.Data.User == nil {
		return Profile{}, fmt.Errorf("%w: no user for subject", domain.ErrLookupFailed)
	}

	p := *parsed.Data.User
	if c.rdb != nil {
		if err := helpers.RedisSetJSON(ctx, c.rdb, profileKey(authSubject), p, c.cacheTTL); err != nil && c.logger != nil {
			c.logger.WithError(err).WithField("subject", authSubject).Warn("profile cache write failed")
		}
	}
	return p, nil
}

var _ ProfileFetcher = (*Client)(nil)
