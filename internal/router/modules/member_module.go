package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/advancedalgos/teams-api/internal/interface/http"
	"github.com/advancedalgos/teams-api/internal/interface/middleware"
)

// MemberModule wires identity routes.
// Public: POST /api/authenticate
// Protected: GET /api/members/me, GET /api/members/:authSubject
type MemberModule struct {
	Handler *handlers.MemberHandler
	Auth    gin.HandlerFunc
	RDB     *redis.Client
}

func NewMemberModule(h *handlers.MemberHandler, auth gin.HandlerFunc, rdb *redis.Client) *MemberModule {
	return &MemberModule{Handler: h, Auth: auth, RDB: rdb}
}

func (m *MemberModule) Register(rg *gin.RouterGroup) {
	// Verification is cheap but the upsert writes, so keep it per-IP limited.
	authLimiter := middleware.RateLimit(m.RDB, 30, time.Minute, middleware.KeyByIP())
	rg.POST("/authenticate", authLimiter, m.Handler.Authenticate)

	auth := rg.Group("/")
	auth.Use(m.Auth, middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyBySubject()))
	{
		auth.GET("/members/me", m.Handler.Me)
		auth.GET("/members/:authSubject", m.Handler.GetBySubject)
	}
}
