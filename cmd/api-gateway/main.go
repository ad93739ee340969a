package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uniportal-api/api/swagger"
	"github.com/noah-isme/uniportal-api/internal/handler"
	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/policy"
	"github.com/noah-isme/uniportal-api/internal/repository"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/internal/view"
	"github.com/noah-isme/uniportal-api/pkg/cache"
	"github.com/noah-isme/uniportal-api/pkg/config"
	"github.com/noah-isme/uniportal-api/pkg/database"
	"github.com/noah-isme/uniportal-api/pkg/logger"
	reqidmiddleware "github.com/noah-isme/uniportal-api/pkg/middleware/requestid"
)

// @title University Portal API
// @version 1.0.0
// @description Sign-in, account status enforcement and results approval for the university portal
// @BasePath /
// @schemes http

const defaultSessionSecret = "dev_session_secret"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
		if cfg.Session.Secret == "" || cfg.Session.Secret == defaultSessionSecret {
			logr.Fatal("SESSION_SECRET must be set in production")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	batchRepo := repository.NewResultBatchRepository(db)
	auditRepo := repository.NewApprovalActionRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Session.KeyPrefix)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.ScopeCache.TTL, logr, cfg.ScopeCache.Enabled)
	staffScopes := service.NewCachedStaffScopes(staffRepo, cacheSvc)
	sessionSvc := service.NewSessionService(sessionRepo, logr, service.SessionConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
	})
	authSvc := service.NewAuthService(userRepo, sessionSvc, validate, logr)
	approvalSvc := service.NewResultsApprovalService(batchRepo, staffScopes, auditRepo, metricsSvc, validate, logr)

	guard := middleware.NewSessionGuard(sessionSvc, service.LookupsFrom(userRepo), middleware.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
	}, metricsSvc, logr)
	limiter := middleware.NewLoginLimiter(cfg.Login.RatePerMinute, cfg.Login.Burst, metricsSvc, logr)
	go limiter.Run(ctx, time.Minute)

	menu := policy.NewMenuPolicy(policy.DefaultMenuAllowList, policy.MenuConfig{
		BasePath:        cfg.Access.BasePath,
		AllowIfNoConfig: cfg.Access.AllowIfNoConfig,
		SuperRoles:      cfg.Access.SuperRoles,
	})

	r := gin.New()
	r.SetHTMLTemplate(view.MustTemplates())
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(guard.Enforce())

	healthHandler := handler.NewHealthHandler(metricsSvc, map[string]handler.Pinger{
		"database": db,
		"redis":    handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
	})
	authHandler := handler.NewAuthHandler(authSvc, guard)
	portalHandler := handler.NewPortalHandler()
	approvalHandler := handler.NewResultsApprovalHandler(approvalSvc)

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", healthHandler.Prometheus)
	}

	r.GET("/", portalHandler.Root)
	r.GET("/login", authHandler.LoginPage)
	r.POST("/login", limiter.Middleware(), authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/access-denied", portalHandler.AccessDenied)

	staff := r.Group("/staff", guard.RequireAuth(), guard.MenuGuard(menu))
	staff.GET("/dashboard", portalHandler.Dashboard(models.FamilyStaff))
	staff.GET("/session/current", portalHandler.CurrentSession)
	staff.GET("/results-approval", approvalHandler.Inbox)

	r.GET("/student/dashboard", guard.RequireAuth(), guard.RequireModule(models.ModulePersonal), portalHandler.Dashboard(models.FamilyStudent))
	r.GET("/applicant/dashboard", guard.RequireAuth(), portalHandler.Dashboard(models.FamilyApplicant))

	approval := r.Group("/results-approval", guard.RequireAuth())
	approval.GET("", approvalHandler.Inbox)
	approval.GET("/batches", approvalHandler.ListBatches)
	approval.GET("/batches/:id/history", approvalHandler.History)
	approval.POST("/action", guard.BlockIfReadOnly("results approval"), approvalHandler.TakeAction)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
