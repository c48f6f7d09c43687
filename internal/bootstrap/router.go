package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpapi "github.com/GoSim-25-26J-441/dgbp-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/api/http/middleware"
	artifactshttp "github.com/GoSim-25-26J-441/dgbp-backend/internal/artifacts/http"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	authhttp "github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/http"
	authmw "github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/middleware"
	deployhttp "github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/http"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/metrics"
	pipelinehttp "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/http"
)

func BuildRouter(app *App) *gin.Engine {
	cfg := app.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.App.Name))
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Store.Backend, app.Store)
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler(app.Registry)))

	api := r.Group("/api/v1")
	api.Use(authmw.FirebaseAuthMiddleware(app.Verifier, app.Users))
	api.Use(middleware.RateLimit(
		middleware.NewCallerLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		auth.UserFirebaseUID,
	))

	authhttp.New(app.Users, app.Accountant).Register(api)
	pipelinehttp.New(app.Projects, app.Orchestrator).Register(api)
	artifactshttp.New(app.Files, cfg.Server.MaxUploadBytes).Register(api)
	deployhttp.New(app.Tracker).Register(api)

	return r
}
