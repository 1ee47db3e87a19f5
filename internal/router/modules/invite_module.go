package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/advancedalgos/teams-api/internal/interface/http"
	"github.com/advancedalgos/teams-api/internal/interface/middleware"
)

// InviteModule wires invitation routes.
// Public: POST /api/invites/redeem
// Protected: POST /api/teams/:slug/invites
type InviteModule struct {
	Handler *handlers.InviteHandler
	Auth    gin.HandlerFunc
	RDB     *redis.Client
}

func NewInviteModule(h *handlers.InviteHandler, auth gin.HandlerFunc, rdb *redis.Client) *InviteModule {
	return &InviteModule{Handler: h, Auth: auth, RDB: rdb}
}

func (m *InviteModule) Register(rg *gin.RouterGroup) {
	// Redemption is unauthenticated, so it gets the tightest limiter.
	redeemLimiter := middleware.RateLimit(m.RDB, 20, time.Minute, middleware.KeyByIPAndPath())
	rg.POST("/invites/redeem", redeemLimiter, m.Handler.Redeem)

	auth := rg.Group("/")
	auth.Use(m.Auth, middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyBySubject()))
	{
		auth.POST("/teams/:slug/invites", m.Handler.Send)
	}
}
