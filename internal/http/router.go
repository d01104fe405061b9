package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/virtuline/accounthub/internal/config"
	"github.com/virtuline/accounthub/internal/http/handlers"
	"github.com/virtuline/accounthub/internal/http/middlewares"
	"github.com/virtuline/accounthub/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB is plenty for any of our payloads

// RouterDeps carries everything the router wires together. main assembles
// it once; tests can hand in fakes.
type RouterDeps struct {
	Log      *slog.Logger
	Accounts handlers.AccountService
	Sessions middlewares.TokenVerifier
	Prom     *observability.Prom
	PingDB   func() error
}

func NewRouter(cfg config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware("accounthub"))
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health + metrics
	h := handlers.NewHealthHandler(deps.PingDB)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// unauthenticated surface gets a per-IP limiter; creation and the two
	// token flows share one bucket, login gets its own tighter one
	createLimiter := middlewares.NewRateLimiter(30, time.Minute)
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	accountsHandler := handlers.NewAccountsHandler(deps.Accounts)
	authMw := middlewares.NewAuthMiddleware(deps.Sessions)

	r.POST("/accounts",
		createLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		accountsHandler.CreateAccount)
	r.POST("/accounts/validate-email",
		createLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		accountsHandler.ValidateEmail)

	r.POST("/auth/login",
		loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		accountsHandler.Login)
	r.POST("/auth/logout",
		authMw.RequireAuth(),
		accountsHandler.Logout)
	r.POST("/auth/password-reset/request",
		loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		accountsHandler.RequestPasswordReset)
	r.POST("/auth/password-reset/confirm",
		loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		accountsHandler.ResetPassword)

	return r
}
