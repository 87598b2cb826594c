package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/reviewhub/internal/account"
	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
	"github.com/geocoder89/reviewhub/internal/http/middlewares"
	"github.com/geocoder89/reviewhub/internal/observability"
)

type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Accounts *account.Service
	Auth     *middlewares.AuthMiddleware
	Prom     *observability.Prom
	// Gatherer backs /metrics; nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(middlewares.RequestID())
	r.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		d.Log.ErrorContext(ctx.Request.Context(), "panic recovered", "panic", recovered, "path", ctx.Request.URL.Path)
		handlers.RespondInternal(ctx, "Something went wrong")
		ctx.Abort()
	}))
	if d.Config.TracingEnabled {
		r.Use(otelgin.Middleware(d.Config.ServiceName))
	}
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Not found")
	})

	// health + metrics
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// api
	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())

	usersHandler := handlers.NewUsersHandler(d.Accounts)
	adminHandler := handlers.NewAdminHandler(d.Accounts, d.Config.AppInfoCacheTTL)

	limiter := middlewares.NewRateLimiter(d.Config.RateLimit, d.Config.RateLimitWindow)
	limited := limiter.RateLimiterMiddleware(middlewares.KeyByRouteAndIP)

	users := api.Group("/user")
	users.POST("/create", usersHandler.Create)
	users.POST("/verify-email", limited, usersHandler.VerifyEmail)
	users.POST("/resend-email-verification-token", limited, usersHandler.ResendVerification)
	users.POST("/forget-password", limited, usersHandler.ForgetPassword)
	users.POST("/verify-pass-reset-token", limited, usersHandler.VerifyResetToken)
	users.POST("/reset-password", limited, usersHandler.ResetPassword)
	users.POST("/sign-in", limited, usersHandler.SignIn)
	users.GET("/is-auth", d.Auth.RequireAuth(), usersHandler.IsAuth)

	admin := api.Group("/admin", d.Auth.RequireAuth(), d.Auth.RequireRole(user.RoleAdmin))
	admin.GET("/app-info", adminHandler.AppInfo)

	return r
}
