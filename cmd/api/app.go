package main

import (
	"context"
	"database/sql"
	"log/slog"

	"declaration-platform/internal/audit"
	"declaration-platform/internal/auth"
	"declaration-platform/internal/config"
	"declaration-platform/internal/declaration"
	"declaration-platform/internal/httpapi"
	"declaration-platform/internal/intent"
	"declaration-platform/internal/revocation"
	"declaration-platform/pkg/logger"
	"declaration-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// backends are the optional external stores. Nil fields select in-memory
// implementations.
type backends struct {
	db  *sql.DB
	rdb redis.Cmdable
}

// openBackends connects to Postgres and Redis when they are configured.
// The returned close func is always non-nil.
func openBackends(ctx context.Context, cfg config.Config, log *slog.Logger) (backends, func(), error) {
	var b backends
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.HasDatabase() {
		db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return backends{}, closeAll, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := utils.ApplySchema(ctx, db, audit.Schema, declaration.Schema); err != nil {
			closeAll()
			return backends{}, func() {}, err
		}
		b.db = db
		log.Info("using postgres storage")
	}

	if cfg.HasRedis() {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			closeAll()
			return backends{}, func() {}, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		b.rdb = rdb
		log.Info("using redis token denylist")
	}

	return b, closeAll, nil
}

// newRouter assembles services and middleware on top of the given backends.
func newRouter(cfg config.Config, log *slog.Logger, b backends) (*gin.Engine, error) {
	var denylist auth.Denylist = revocation.NewMemoryDenylist()
	if b.rdb != nil {
		denylist = revocation.NewRedisDenylist(b.rdb)
	}

	authManager, err := auth.NewManager(cfg.Auth, auth.WithDenylist(denylist))
	if err != nil {
		return nil, err
	}

	var auditRepo audit.Repository = audit.NewMemoryRepo()
	var declRepo declaration.Repository = declaration.NewMemoryRepo()
	if b.db != nil {
		auditRepo = audit.NewPostgresRepo(b.db)
		declRepo = declaration.NewPostgresRepo(b.db)
	}

	auditSvc := audit.NewService(auditRepo)
	h := httpapi.Handlers{
		Auth:         authManager,
		Audit:        auditSvc,
		Declarations: declaration.NewService(declRepo, intent.StaticPlanner{}, intent.LogReconciler{Logger: log}, auditSvc),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(httpapi.CORS(cfg.HTTP.AllowedOrigin))

	registerRoutes(r, h,
		auth.RequireToken(authManager),
		httpapi.LoginRateLimit(cfg.HTTP.LoginRatePerMinute, cfg.HTTP.LoginRateBurst),
	)
	return r, nil
}
