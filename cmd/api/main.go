package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/advancedalgos/teams-api/config"
	"github.com/advancedalgos/teams-api/internal/application"
	"github.com/advancedalgos/teams-api/internal/infrastructure/identity"
	pginfra "github.com/advancedalgos/teams-api/internal/infrastructure/postgres"
	handlers "github.com/advancedalgos/teams-api/internal/interface/http"
	"github.com/advancedalgos/teams-api/internal/interface/middleware"
	"github.com/advancedalgos/teams-api/internal/router"
	"github.com/advancedalgos/teams-api/internal/router/modules"
	"github.com/advancedalgos/teams-api/pkg/helpers"
	"github.com/advancedalgos/teams-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// Identity assertions: keys come from the issuer's JWKS endpoint.
	jwks := helpers.NewJWKSCache(cfg.IdentityJWKSURL, cfg.JWKSCacheTTL, cfg.JWKSFetchTimeout)
	verifier := helpers.NewAssertionVerifier(cfg.IdentityIssuer, cfg.IdentityAudience, jwks)

	// Invite tokens are signed with our own secret, not the issuer's keys.
	inviteCodec := helpers.NewInviteCodec(cfg.InviteTokenSecret, cfg.InviteTokenTTL)

	profiles := identity.NewClient(cfg.UsersAPIURL, cfg.UsersAPITimeout, rdb, cfg.ProfileCacheTTL, logger)

	var pub application.EmailPublisher
	if cfg.RabbitMQURL != "" && cfg.RabbitMQEmailQueue != "" {
		rp, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer rp.Close()
		pub = rp
	} else {
		logger.Warn("rabbitmq not configured; emails will not be enqueued")
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("failed to init elasticsearch client: %v", err)
	}

	gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		log.Fatalf("failed to init GCS client: %v", err)
	}
	defer func() { _ = gcsClient.Close() }()

	memberRepo := pginfra.NewMemberRepository(pool)
	teamRepo := pginfra.NewTeamRepository(pool)

	memberSvc := application.NewMemberService(memberRepo, verifier, logger)
	teamSvc := application.NewTeamService(teamRepo, profiles, pub,
		gcsClient, cfg.GCSBucket, es, cfg.ESTeamsIndex,
		logger, application.TeamDefaults{Avatar: cfg.DefaultAvatarURL, Banner: cfg.DefaultBannerURL}, cfg.MailSendEnabled)
	inviteSvc := application.NewInviteService(teamRepo, memberRepo, inviteCodec,
		pub, logger, cfg.MailSendEnabled, cfg.InviteAcceptURL)

	memberHandler := handlers.NewMemberHandler(memberSvc, logger)
	teamHandler := handlers.NewTeamHandler(teamSvc, logger)
	inviteHandler := handlers.NewInviteHandler(inviteSvc, logger)

	authMW := middleware.Auth(memberSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	// CORS must stay on the engine so preflight OPTIONS requests are
	// answered before any group routing.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	reg.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	reg.Add(
		modules.NewMemberModule(memberHandler, authMW, rdb),
		modules.NewTeamModule(teamHandler, authMW, rdb),
		modules.NewInviteModule(inviteHandler, authMW, rdb),
	)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
