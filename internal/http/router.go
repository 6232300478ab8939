// Package httpapi wires the HTTP transport (Gin) to the rehab engine. It
// centralizes cross-cutting concerns: tracing, correlation ids, redacted
// access logs, panic recovery, metrics, authentication, idempotency, rate
// limiting, compression, CORS and security headers.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/docs"
	"github.com/tbourn/rehab-plan-backend/internal/catalog"
	"github.com/tbourn/rehab-plan-backend/internal/config"
	"github.com/tbourn/rehab-plan-backend/internal/dedup"
	"github.com/tbourn/rehab-plan-backend/internal/domain"
	"github.com/tbourn/rehab-plan-backend/internal/gateway"
	"github.com/tbourn/rehab-plan-backend/internal/http/handlers"
	"github.com/tbourn/rehab-plan-backend/internal/http/middleware"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/services"
)

// programRepoShim adapts the repository free functions to services.ProgramRepo.
type programRepoShim struct{}

// ListPrograms proxies repo.ListPrograms.
func (programRepoShim) ListPrograms(ctx context.Context, db *gorm.DB, userID, status string) ([]domain.RehabProgram, error) {
	return repo.ListPrograms(ctx, db, userID, status)
}

// GetProgram proxies repo.GetProgram.
func (programRepoShim) GetProgram(ctx context.Context, db *gorm.DB, id, userID string) (*domain.RehabProgram, error) {
	return repo.GetProgram(ctx, db, id, userID)
}

// UpdateProgramStatus proxies repo.UpdateProgramStatus.
func (programRepoShim) UpdateProgramStatus(ctx context.Context, db *gorm.DB, id, userID, status string) error {
	return repo.UpdateProgramStatus(ctx, db, id, userID, status)
}

// PauseActivePrograms proxies repo.PauseActivePrograms.
func (programRepoShim) PauseActivePrograms(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.PauseActivePrograms(ctx, db, userID)
}

// Deps are the long-lived collaborators built by the caller.
type Deps struct {
	DB      *gorm.DB
	Catalog catalog.Index
	// Gateway may be nil: every plan is then a fallback.
	Gateway gateway.Augmenter
	// Store backs the dedup cache; nil keeps it in process.
	Store dedup.Store
}

// NewGateway builds the augmentation gateway from configuration.
func NewGateway(cfg config.AIConfig) *gateway.Client {
	return gateway.New(gateway.Config{
		Enabled:     cfg.Enabled,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	})
}

// RegisterRoutes attaches all middleware and endpoints to r and mounts the
// API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID
//  3. Logger (redacting, request-scoped)
//  4. Recovery
//  5. Body size limit
//  6. Metrics
//  7. Compression, CORS and security headers
//
// The API group then adds:
//  1. Auth (identity feeds idempotency and rate limiting)
//  2. Idempotency validator (before the limiter so replays bypass it)
//  3. Rate limiter
//
// /health, /metrics and /swagger stay public.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	db := deps.DB

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.LogOptions{MaskHeaders: []string{"X-API-Key"}}))
	r.Use(middleware.Recovery())

	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 1 << 20
	}
	r.Use(limitBody(bodyLimit))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))

	corsHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
		middleware.HeaderUserID, middleware.HeaderUserTZ, middleware.HeaderIdempotencyKey,
	}
	exposed := []string{"X-Request-ID", "ETag", "Retry-After", middleware.HeaderReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO even without an Origin header (simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    exposed,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    exposed,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok", "catalog_exercises": 0}
		if deps.Catalog != nil {
			body["catalog_exercises"] = deps.Catalog.Len()
		}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	})

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = groupWithPrefix(r, cfg.APIBasePath).BasePath()
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(newServices(deps, cfg))
	if cfg.IdempotencyTTL > 0 {
		h.IdempotencyTTL = cfg.IdempotencyTTL
	}

	// Routes that may call the AI provider get a stricter per-user budget.
	gen := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if cfg.GenerateRPS > 0 {
		gen = middleware.NewRateLimiter(cfg.GenerateRPS, cfg.GenerateBurst, nil).
			WithCode(handlers.ErrCodeGenerationLimited).
			Handler()
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Auth(middleware.AuthOptions{
		Secret: []byte(cfg.Auth.JWTSecret),
		Leeway: cfg.Auth.Leeway,
	}))

	api.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, scopeID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scopeID, key, now)
			switch {
			case errors.Is(err, repo.ErrNotFound):
				return false, nil
			case err != nil:
				return false, err
			}
			return rec != nil, nil
		},
	))

	if cfg.RateRPS > 0 {
		api.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler())
	}

	{
		api.POST("/onboarding/evaluate", h.EvaluateOnboarding)
		api.POST("/onboarding", gen, h.SubmitOnboarding)
		api.POST("/mode", h.SwitchMode)

		api.GET("/programs", h.ListPrograms)
		api.GET("/programs/:id", h.GetProgram)
		api.PUT("/programs/:id/status", h.UpdateProgramStatus)
		api.GET("/programs/:id/adherence", h.GetAdherence)

		api.POST("/programs/:id/logs", gen, h.PostLog)
		api.GET("/programs/:id/logs", h.ListLogs)
		api.PATCH("/logs/:id/notes", h.UpdateLogNotes)

		api.POST("/plans/generate", gen, h.GeneratePlan)
		api.GET("/programs/:id/plans", h.ListPlans)
		api.GET("/programs/:id/plans/latest", h.LatestPlan)
	}
}

// newServices builds the service graph over deps.
func newServices(deps Deps, cfg config.Config) (
	*services.OnboardingService,
	*services.ProgramService,
	*services.LogService,
	*services.PlanService,
	*services.AdherenceService,
) {
	cache := dedup.New(deps.Store, cfg.AI.CacheTTL)
	cache.OnStoreError = func(op string, err error) {
		log.Warn().Err(err).Str("op", op).Msg("dedup store error")
	}

	plans := services.NewPlanService(deps.DB, deps.Catalog, deps.Gateway, cache)
	adherence := services.NewAdherenceService(deps.DB)
	if cfg.SummaryPeriod > 0 {
		adherence.Period = cfg.SummaryPeriod
	}
	if cfg.StreakCadenceDays > 0 {
		adherence.CadenceDays = cfg.StreakCadenceDays
	}

	logs := &services.LogService{DB: deps.DB, Plans: plans, Adherence: adherence, Now: time.Now}
	onboarding := &services.OnboardingService{DB: deps.DB, Plans: plans, Adherence: adherence, Now: time.Now}
	programs := services.NewProgramService(deps.DB, programRepoShim{})
	return onboarding, programs, logs, plans, adherence
}

// limitBody caps request bodies at maxBytes; larger bodies fail to bind.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
