package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/contest-api/internal/config"
	"github.com/yourusername/contest-api/internal/handler"
	"github.com/yourusername/contest-api/internal/middleware"
	pgRepo "github.com/yourusername/contest-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/contest-api/internal/repository/redis"
	"github.com/yourusername/contest-api/internal/service"
	"github.com/yourusername/contest-api/internal/service/judging"
	ws "github.com/yourusername/contest-api/internal/websocket"
	"github.com/yourusername/contest-api/pkg/auth"
	"github.com/yourusername/contest-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories.
	contestRepo := pgRepo.NewContestRepo(db)
	submissionRepo := pgRepo.NewSubmissionRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}
	runStore, err := redisRepo.NewRunStore(redisClient)
	if err != nil {
		log.Printf("Failed to initialize RunStore: %v", err)
		os.Exit(1)
	}

	// Auth.
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// WebSocket hub.
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(appCtx)
	wsManager := ws.NewManager(hub)

	// Judging pipeline configuration.
	judgingConfig := judging.DefaultConfig()
	if cfg.Judging.IntroDwell > 0 {
		judgingConfig.IntroDwell = cfg.Judging.IntroDwell
	}
	if cfg.Judging.MeetJudgesDwell > 0 {
		judgingConfig.MeetJudgesDwell = cfg.Judging.MeetJudgesDwell
	}
	if cfg.Judging.DeliberationDwell > 0 {
		judgingConfig.DeliberationDwell = cfg.Judging.DeliberationDwell
	}
	if cfg.Judging.RevealDwell > 0 {
		judgingConfig.RevealDwell = cfg.Judging.RevealDwell
	}
	if cfg.Judging.MaxScoringRetries > 0 {
		judgingConfig.MaxScoringRetries = cfg.Judging.MaxScoringRetries
	}
	if cfg.Judging.RetryInterval > 0 {
		judgingConfig.RetryInterval = cfg.Judging.RetryInterval
	}
	if cfg.Judging.ScoringTimeout > 0 {
		judgingConfig.ScoringTimeout = cfg.Judging.ScoringTimeout
	}

	// Scoring backend: Gemini when configured, deterministic otherwise.
	var backend judging.ScoringBackend
	if cfg.Gemini.APIKey != "" {
		geminiBackend, err := judging.NewGeminiBackend(appCtx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Printf("Failed to initialize Gemini backend: %v", err)
			os.Exit(1)
		}
		backend = geminiBackend
		log.Println("Using Gemini scoring backend")
	} else {
		backend = judging.NewStaticBackend()
		log.Println("GEMINI_API_KEY not set, using deterministic scoring backend")
	}

	// Email.
	var emailService service.EmailService
	if cfg.Email.APIKey != "" {
		resendService, err := service.NewResendEmailService(cfg.Email.APIKey, cfg.Email.FromAddress)
		if err != nil {
			log.Printf("Failed to initialize Resend email service: %v", err)
			os.Exit(1)
		}
		emailService = resendService
	} else {
		emailService = &service.NoopEmailService{}
		log.Println("RESEND_API_KEY not set, settlement emails disabled")
	}

	// Services.
	contestService := service.NewContestService(contestRepo, submissionRepo, resultRepo, cacheRepo)
	contestManager := service.NewContestManager(
		contestRepo,
		submissionRepo,
		resultRepo,
		runStore,
		cacheRepo,
		emailService,
		cfg.Email.AdminEmail,
		backend,
		wsManager,
		judging.SystemClock(),
		judgingConfig,
		db,
	)

	// Handlers and middleware.
	contestHandler := handler.NewContestHandler(contestService, contestManager)
	wsHandler := handler.NewWSHandler(hub, wsManager)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		contests := api.Group("/contests")
		{
			contests.GET("", rateLimiter.Limit(middleware.PublicReadRateLimitConfig()), contestHandler.ListContests)

			contestWithID := contests.Group("/:id")
			contestWithID.Use(middleware.ExtractUintParam("id", "contestID"))
			{
				contestWithID.GET("", contestHandler.GetContest)
				contestWithID.GET("/submissions", contestHandler.ListSubmissions)
				contestWithID.POST("/submissions",
					rateLimiter.Limit(middleware.SubmissionRateLimitConfig()),
					contestHandler.RegisterSubmission)
				contestWithID.GET("/results", contestHandler.GetResults)
				contestWithID.GET("/results/export", contestHandler.ExportResults)
				contestWithID.GET("/winners", contestHandler.GetWinners)
				contestWithID.GET("/scores", contestHandler.GetSubmissionScores)
				contestWithID.GET("/run", contestHandler.GetJudgingRun)
			}
		}

		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.POST("/contests", contestHandler.CreateContest)

			adminContest := admin.Group("/contests/:id")
			adminContest.Use(middleware.ExtractUintParam("id", "contestID"))
			{
				adminContest.POST("/open", contestHandler.OpenContest)
				adminContest.POST("/cancel", contestHandler.CancelContest)
				adminContest.POST("/judge", contestHandler.StartJudging)
				adminContest.POST("/judge/cancel", contestHandler.CancelJudging)
			}
		}
	}

	router.GET("/ws", wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	contestManager.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
