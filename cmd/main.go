package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ecosnap/internal/config"
	"ecosnap/internal/handler"
	"ecosnap/internal/repository"
	"ecosnap/internal/services"
	"ecosnap/internal/utils"
)

func main() {
	// 1. Config and logger
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := utils.NewLogger(cfg.Server.Environment)

	ctx, shutdownManager := utils.NewShutdownManager(context.Background(), logger)
	shutdownManager.StartListening()

	// 2. MongoDB
	mongoClient, err := utils.NewMongoDBConnection(ctx, cfg.MongoDB.URI, cfg.MongoDB.ConnectTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	shutdownManager.Register(func(ctx context.Context) error {
		logger.Info().Msg("closing MongoDB connection")
		return mongoClient.Disconnect(ctx)
	})
	db := mongoClient.Database(cfg.MongoDB.DBName)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to create indexes")
	}

	// 3. Redis
	rdb, err := utils.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	shutdownManager.Register(func(ctx context.Context) error {
		logger.Info().Msg("closing Redis connection")
		return rdb.Close()
	})

	// 4. MinIO
	minioClient, err := utils.NewMinioClient(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize MinIO client")
	}

	// 5. Repositories and services
	reportRepo := repository.NewReportRepository(db)
	userRepo := repository.NewUserRepository(db)
	workOrderRepo := repository.NewWorkOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	notifier := services.NewRedisNotifier(rdb, cfg.Redis.NotificationChannel, logger)
	limiter := utils.NewRedisRateLimiter(rdb, "reports", cfg.RateLimit.Reports, cfg.RateLimit.Window)

	reportService := services.NewReportService(reportRepo, userRepo, workOrderRepo, notifier, limiter, logger)
	workOrderService := services.NewWorkOrderService(workOrderRepo, reportService, notifier)
	reviewService := services.NewReviewService(reviewRepo, workOrderRepo, userRepo, notifier, logger)
	userService := services.NewUserService(userRepo, notifier)
	statsService := services.NewStatsService(statsRepo, userRepo)
	mediaService := services.NewMediaService(mediaRepo, minioClient, cfg.Minio.Bucket, cfg.Minio.PublicURL)

	// 6. Handlers
	resp := handler.NewResponder(logger, cfg.Server.IsProduction())
	handlers := handler.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		Users:      handler.NewUserHandler(userService, statsService, resp),
		Reports:    handler.NewReportHandler(reportService, resp),
		WorkOrders: handler.NewWorkOrderHandler(workOrderService, resp),
		Reviews:    handler.NewReviewHandler(reviewService, resp),
		Media:      handler.NewMediaHandler(mediaService, resp),
		Stats:      handler.NewStatsHandler(statsService, resp),
	}

	// 7. Router
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", utils.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", utils.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(utils.RequestID(), utils.RequestLogger(logger), gin.Recovery())
	router.MaxMultipartMemory = 8 << 20

	handler.RegisterRoutes(router, handlers, utils.NewJWTUtil(cfg.Auth.JWTSecret))

	// 8. Server
	server := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("env", cfg.Server.Environment).Msg("EcoSnap API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	shutdownManager.Register(func(ctx context.Context) error {
		logger.Info().Msg("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	select {}
}
