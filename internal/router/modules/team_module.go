package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/advancedalgos/teams-api/internal/interface/http"
	"github.com/advancedalgos/teams-api/internal/interface/middleware"
)

// TeamModule wires team routes, all behind the auth middleware:
// the team list, search and read endpoints plus POST /api/teams,
// GET /api/members/me/teams and the slug-scoped profile, avatar,
// agent and delete operations.
type TeamModule struct {
	Handler *handlers.TeamHandler
	Auth    gin.HandlerFunc
	RDB     *redis.Client
}

func NewTeamModule(h *handlers.TeamHandler, auth gin.HandlerFunc, rdb *redis.Client) *TeamModule {
	return &TeamModule{Handler: h, Auth: auth, RDB: rdb}
}

func (m *TeamModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(m.Auth, middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyBySubject()))
	{
		auth.GET("/teams", m.Handler.List)
		auth.GET("/teams/search", m.Handler.Search)
		auth.GET("/teams/:slug", m.Handler.GetBySlug)
		auth.POST("/teams", m.Handler.Provision)
		auth.GET("/members/me/teams", m.Handler.MyTeams)
		auth.PUT("/teams/:slug/profile", m.Handler.UpdateProfile)
		auth.POST("/teams/:slug/avatar", m.Handler.UploadAvatar)
		auth.PUT("/teams/:slug/agent", m.Handler.UpdateAgent)
		auth.DELETE("/teams/:slug", m.Handler.Delete)
	}
}
