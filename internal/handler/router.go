package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"zoolip/portal/internal/config"
	"zoolip/portal/internal/guard"
	"zoolip/portal/internal/handler/middleware"
	"zoolip/portal/internal/metrics"
	"zoolip/portal/internal/model"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Guard    *guard.Guard

	AuthHandler   *AuthHandler
	AdminHandler  *AdminHandler
	InviteHandler *InviteHandler
}

func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	session := middleware.SessionOptions{
		CookieName:  cfg.Session.CookieName,
		LoginPath:   cfg.Guard.LoginPath,
		ReturnParam: cfg.Guard.ReturnParam,
	}
	require := func(roles ...model.Role) gin.HandlerFunc {
		return middleware.RequireRoles(d.Guard, session, d.Metrics, d.Logger, roles...)
	}
	// Separate buckets so failed logins cannot starve invite redemption.
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	validateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	// Public auth routes
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), d.AuthHandler.Login)
		auth.POST("/logout", d.AuthHandler.Logout)
		auth.GET("/me", require(), d.AuthHandler.Me)
		auth.GET("/routes", require(), d.AuthHandler.Routes)
	}

	r.POST("/api/v1/invites/validate", validateLimiter.Middleware(), d.InviteHandler.Validate)

	admin := r.Group("/api/v1/admin")
	admin.Use(require(model.RoleAdmin, model.RoleSystem))
	{
		admin.POST("/invites", d.AdminHandler.CreateInvite)
		admin.GET("/invites/exists", d.AdminHandler.InviteExists)
		admin.GET("/invites/events", d.AdminHandler.ListInviteEvents)
	}

	r.POST("/api/v1/admin/invites/sweep", require(model.RoleSystem), d.AdminHandler.SweepInvites)

	return r
}
