package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/fleetops/dispatch-board/internal/cache"
	"github.com/fleetops/dispatch-board/internal/config"
	"github.com/fleetops/dispatch-board/internal/handler"
	"github.com/fleetops/dispatch-board/internal/middleware"
	"github.com/fleetops/dispatch-board/internal/ratelimit"
	"github.com/fleetops/dispatch-board/internal/repository"
	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/fleetops/dispatch-board/internal/sheets"
	"github.com/fleetops/dispatch-board/internal/storage"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router        *gin.Engine
	config        *config.Config
	redis         *storage.RedisClient
	postgres      *storage.Postgres
	authService   *service.AuthService
	authHandler   *handler.AuthHandler
	reportHandler *handler.ReportHandler
	lookupHandler *handler.LookupHandler
	kpiHandler    *handler.KPIHandler
	syncHandler   *handler.SyncHandler
	sessionLimit  *ratelimit.SessionLimiter
	ipLimit       *ratelimit.IPLimiter
	httpServer    *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Repositories
	userRepo := repository.NewUserRepository(postgres)
	sessionRepo := repository.NewAuthSessionRepository(postgres)
	reportRepo := repository.NewReportRepository(postgres)
	hubRepo := repository.NewHubRepository(postgres)
	sheetRepo := repository.NewSheetRecordRepository(postgres)
	requestLogRepo := repository.NewRequestLogRepository(postgres)
	counterStore := repository.NewRateLimitRepository(postgres)

	// The shared in-process TTL cache backs the IP limiter and the
	// KPI response cache.
	memCache := cache.NewMemory(cfg.Cache.MaxEntries)

	// Services
	authService := service.NewAuthService(userRepo, sessionRepo, redis, cfg.Auth)
	reportService := service.NewReportService(reportRepo)
	lookupService := service.NewLookupService(hubRepo, redis)
	kpiService := service.NewKPIService(reportRepo, memCache)
	sheetsClient := sheets.NewClient(
		cfg.Sheets.APIKey,
		cfg.Sheets.SpreadsheetID,
		cfg.Sheets.Range,
		cfg.SheetsTimeout(),
	)
	syncService := service.NewSyncService(sheetRepo, sheetsClient)

	s := &Server{
		router:        router,
		config:        cfg,
		redis:         redis,
		postgres:      postgres,
		authService:   authService,
		authHandler:   handler.NewAuthHandler(authService),
		reportHandler: handler.NewReportHandler(reportService),
		lookupHandler: handler.NewLookupHandler(lookupService),
		kpiHandler:    handler.NewKPIHandler(kpiService),
		syncHandler:   handler.NewSyncHandler(syncService, cfg.Sheets.WebhookSecret),
		sessionLimit:  ratelimit.NewSessionLimiter(counterStore, cfg.RateLimitWindow(), cfg.RateLimit.Limit),
		ipLimit:       ratelimit.NewIPLimiter(memCache, cfg.IPRateLimitWindow(), cfg.RateLimit.IPLimit),
	}

	middleware.InitRequestLogger(requestLogRepo, 1000)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogger())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	auth := s.router.Group("/auth")
	{
		auth.POST("/google", middleware.IPRateLimit(s.ipLimit, "login"), s.authHandler.GoogleLogin)
		auth.POST("/login", middleware.IPRateLimit(s.ipLimit, "login"), s.authHandler.PasswordLogin)
		auth.POST("/qr", middleware.IPRateLimit(s.ipLimit, "qr"), s.authHandler.StartQR)
		auth.POST("/qr/callback", middleware.IPRateLimit(s.ipLimit, "qr"), s.authHandler.QRCallback)
		auth.GET("/qr/:token", middleware.IPRateLimit(s.ipLimit, "qrpoll"), s.authHandler.PollQR)
		auth.GET("/me", middleware.RequireSession(s.authService), s.authHandler.Me)
	}

	api := s.router.Group("/api")
	api.Use(middleware.RequireSession(s.authService))
	{
		api.GET("/clusters", s.lookupHandler.Clusters)
		api.GET("/hubs", s.lookupHandler.Hubs)
		api.GET("/hubs/:code", s.lookupHandler.Hub)
		api.GET("/kpi/summary", s.kpiHandler.Summary)
		api.GET("/reports", s.reportHandler.List)
		api.GET("/sheet-records", s.syncHandler.Records)

		// Mutating endpoints additionally go through the session
		// fixed window.
		limited := api.Group("")
		limited.Use(middleware.SessionRateLimit(s.sessionLimit))
		{
			limited.POST("/reports", s.reportHandler.Submit)
			limited.PATCH("/reports/:id/status", s.reportHandler.UpdateStatus)
		}
	}

	webhooks := s.router.Group("/webhooks")
	{
		webhooks.POST("/sheets/sync", middleware.IPRateLimit(s.ipLimit, "sync"), s.syncHandler.Sync)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	redisHealthy := true
	if err := s.redis.Ping(c.Request.Context()); err != nil {
		redisHealthy = false
		log.Printf("Redis health check failed: %v", err)
	}

	dbHealthy := true
	if err := s.postgres.Ping(c.Request.Context()); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "dispatch-board",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(startTime).Seconds(),
		"checks": gin.H{
			"redis":    redisHealthy,
			"database": dbHealthy,
		},
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting dispatch board on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

var startTime = time.Now()
