package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sedefy/sedetok-backend/internal/api/handlers"
	"github.com/sedefy/sedetok-backend/internal/api/middleware"
	"github.com/sedefy/sedetok-backend/internal/config"
	"github.com/sedefy/sedetok-backend/internal/repository"
	"github.com/sedefy/sedetok-backend/internal/service"
	"github.com/sedefy/sedetok-backend/internal/websocket"
	"github.com/sedefy/sedetok-backend/pkg/database"
	"github.com/sedefy/sedetok-backend/pkg/distributed"
	jwtutil "github.com/sedefy/sedetok-backend/pkg/jwt"
	"github.com/sedefy/sedetok-backend/pkg/logger"
	"github.com/sedefy/sedetok-backend/pkg/ratelimit"
)

// SetupRouter wires repositories, services and handlers and returns the HTTP
// engine together with the background cleanup service (so the caller can stop
// it on shutdown).
func SetupRouter(cfg *config.Config, db *database.DB) (*gin.Engine, *service.CleanupService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Repositories
	matchRepo := repository.NewMatchRepository(db)
	playerRepo := repository.NewPlayerRepository(db)
	userRepo := repository.NewUserRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	// WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Redis is optional: without it rate limiting falls back to per-instance
	// token buckets and the cleanup sweep runs unlocked.
	var redisLimiter *ratelimit.RedisRateLimiter
	var lockManager *distributed.RedisLockManager
	if cfg.RedisAddr != "" {
		redisLimiter = ratelimit.NewRedisRateLimiter(ratelimit.RedisRateLimiterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		lockManager = distributed.NewRedisLockManager(redisLimiter.GetClient())
		logger.Info("Redis connected", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("Redis disabled, using in-memory rate limiting")
	}

	// Services
	xpService := service.NewXPService()
	matchmakingService := service.NewMatchmakingService(matchRepo, playerRepo, hub)
	matchService := service.NewMatchService(matchRepo, playerRepo, userRepo, xpService, hub)
	userService := service.NewUserService(userRepo, xpService)

	cleanupService := service.NewCleanupService(matchRepo, lockManager, cfg.CleanupInterval, cfg.CleanupMaxAge)
	cleanupService.Start()

	// Handlers
	jwtManager := jwtutil.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	authHandler := handlers.NewAuthHandler(userService, jwtManager)
	matchmakingHandler := handlers.NewMatchmakingHandler(matchmakingService, jwtManager)
	matchHandler := handlers.NewMatchHandler(matchService)
	userHandler := handlers.NewUserHandler(userService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardRepo)
	wsHandler := handlers.NewWebSocketHandler(hub, jwtManager)
	healthHandler := handlers.NewHealthHandler(db)

	joinLimit := middleware.JoinRateLimit()
	authLimit := middleware.AuthRateLimit()
	apiLimit := middleware.GeneralAPIRateLimit()
	if redisLimiter != nil {
		joinLimit = middleware.RedisJoinRateLimit(redisLimiter)
		authLimit = middleware.RedisAuthRateLimit(redisLimiter)
	}

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	v1.Use(apiLimit)
	{
		auth := v1.Group("/auth")
		auth.Use(authLimit)
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Join resolves its own identity (token or body userId), so it sits
		// outside the auth middleware.
		v1.POST("/matchmaking/join", joinLimit, matchmakingHandler.Join)

		matches := v1.Group("/matches")
		{
			matches.GET("/:id", matchHandler.GetMatch)
			matches.GET("/code/:code", matchHandler.GetMatchByCode)

			authed := matches.Group("")
			authed.Use(middleware.Auth(cfg))
			{
				authed.GET("", matchHandler.ListMyMatches)
				authed.POST("/:id/answer", matchHandler.SubmitAnswer)
				authed.POST("/:id/finish", matchHandler.FinishMatch)
			}
		}

		users := v1.Group("/users")
		users.Use(middleware.Auth(cfg))
		{
			users.GET("/me", userHandler.GetCurrentUser)
		}

		v1.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

		v1.GET("/ws", wsHandler.HandleWebSocket)
	}

	return router, cleanupService
}
