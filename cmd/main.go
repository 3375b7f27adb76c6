package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"zoolip/portal/internal/config"
	"zoolip/portal/internal/guard"
	"zoolip/portal/internal/handler"
	"zoolip/portal/internal/invite"
	"zoolip/portal/internal/metrics"
	"zoolip/portal/internal/model"
	"zoolip/portal/internal/repository"
	"zoolip/portal/internal/service"
	jwtpkg "zoolip/portal/pkg/jwt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("zoolip", registry)

	// 4. Initialize state store (Redis or in-memory)
	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		stateStore = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis state store")
	case "memory":
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	// 5. Audit trail (PostgreSQL), optional
	var events repository.InviteEventRepository
	if cfg.Audit.Enabled {
		db, err := config.NewPostgresDB(cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		events = repository.NewPGInviteEventRepository(db)
	}

	// 6. Session tokens and identity resolution
	jwtManager := jwtpkg.NewManager(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.TTL)

	var resolver guard.Resolver
	switch cfg.Identity.Backend {
	case "jwt":
		resolver = service.NewJWTResolver(jwtManager)
	case "remote":
		resolver = service.NewRemoteResolver(cfg.Identity.Remote, cfg.Session.CookieName, nil)
		logger.Info("resolving identities through backend", zap.String("base_url", cfg.Identity.Remote.BaseURL))
	default:
		logger.Fatal("unknown identity backend", zap.String("backend", cfg.Identity.Backend))
	}
	var forgetter service.IdentityForgetter
	// Session tokens are checked locally; only backend lookups are cached.
	if cfg.Identity.Backend == "remote" && cfg.Identity.CacheTTL > 0 {
		cached := service.NewCachedResolver(resolver, stateStore, cfg.Identity.CacheTTL, m, logger)
		resolver = cached
		forgetter = cached
	}
	roleGuard := guard.New(resolver)

	// 7. Invite mail, optional
	var mailer service.InviteMailer
	if cfg.SMTP.Host != "" {
		sender, err := service.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logger.Fatal("failed to init smtp sender", zap.Error(err))
		}
		mailer = service.NewInviteMailer(sender)
	}

	// 8. Initialize services
	store := invite.New(invite.WithMaxAttempts(cfg.Invite.MaxAttempts))
	inviteService := service.NewInviteService(store, events, mailer, m, logger, service.InviteOptions{
		TTL:         cfg.Invite.TTL,
		MaxTTL:      cfg.Invite.MaxTTL,
		LinkBaseURL: cfg.Invite.LinkBaseURL,
		LinkPath:    cfg.Invite.LinkPath,
	})
	authService := service.NewAuthService(cfg.Bootstrap, jwtManager, forgetter, logger)
	if !cfg.Bootstrap.Enabled() {
		logger.Info("bootstrap login disabled")
	}

	var sweeper *service.Sweeper
	if cfg.Invite.SweepInterval > 0 {
		sweeper = service.NewSweeper(inviteService, logger, cfg.Invite.SweepInterval)
		sweeper.Start()
	}

	// 9. Setup router
	router := handler.SetupRouter(handler.Deps{
		Config:        cfg,
		Logger:        logger,
		Metrics:       m,
		Gatherer:      registry,
		Guard:         roleGuard,
		AuthHandler:   handler.NewAuthHandler(authService, guard.DefaultRoutes, cfg.Session.CookieName, cfg.Session.CookieSecure),
		AdminHandler:  handler.NewAdminHandler(inviteService),
		InviteHandler: handler.NewInviteHandler(inviteService),
	})

	// 10. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 11. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
