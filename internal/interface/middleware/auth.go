package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/advancedalgos/teams-api/internal/application"
	"github.com/advancedalgos/teams-api/internal/domain"
	"github.com/advancedalgos/teams-api/pkg/response"
)

// Context keys set by Auth.
const (
	CtxAuthSubjectKey = "authSubject"
	CtxMemberIDKey    = "memberID"
	CtxMemberAliasKey = "memberAlias"
)

// Auth verifies the Bearer identity assertion on every request and binds it
// to a member record. There are no server-side sessions; the assertion is
// the only credential.
func Auth(members *application.MemberService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing identity assertion", nil)
			c.Abort()
			return
		}
		m, err := members.Authenticate(c.Request.Context(), raw)
		if err != nil {
			msg := "invalid identity assertion"
			if errors.Is(err, domain.ErrTokenExpired) {
				msg = "identity assertion expired"
			}
			response.Error[any](c, http.StatusUnauthorized, msg, nil)
			c.Abort()
			return
		}
		c.Set(CtxAuthSubjectKey, m.AuthSubject)
		c.Set(CtxMemberIDKey, m.ID)
		c.Set(CtxMemberAliasKey, m.Alias)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
