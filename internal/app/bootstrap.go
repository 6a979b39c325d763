package app

import (
	"backend/internal/app/auth"
	"backend/internal/app/health"
	"backend/internal/app/message"
	"backend/internal/app/upload"
	"backend/internal/app/user"
	"backend/internal/config"
	"backend/internal/db"
	"backend/internal/db/seeder"
	"backend/internal/gateways/websocket"
	"backend/internal/providers/minio"
	"backend/internal/providers/redis"
	"backend/internal/router"
	"backend/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Application struct {
	Router *router.Router
	DB     *gorm.DB
}

func Bootstrap(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	seed := seeder.NewSeeder(dbConn, logger)
	if err := seed.Seed(); err != nil {
		logger.Warn("Failed to run seeders", zap.Error(err))
	}

	redisProvider := redis.NewRedisProvider(cfg.RedisURL, logger, cfg.RedisTTL)
	minioProvider, err := minio.NewMinioProvider(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize MinIO provider", zap.Error(err))
		minioProvider = nil
	}
	eventBus := utils.NewEventBus()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := user.NewRepository(dbConn)
	messageRepo := message.NewRepository(dbConn)

	userService := user.NewService(userRepo, redisProvider, logger)
	authService := auth.NewService(userRepo, tokens, logger)

	var codecBlobs message.BlobStore
	var fetchBlobs message.BlobFetcher
	if minioProvider != nil {
		codecBlobs = minioProvider
		fetchBlobs = minioProvider
	}
	codec := message.NewCodec(codecBlobs)
	aggregator := message.NewAggregator(codec, userService)
	messageService := message.NewService(messageRepo, codec, aggregator, userService, fetchBlobs, eventBus, logger)

	hub := websocket.NewHub(logger, eventBus)
	go hub.Run()

	checker := &utils.HealthChecker{
		DB:    dbConn,
		Redis: redisProvider.Client,
	}
	if minioProvider != nil {
		checker.Minio = minioProvider.GetClient()
		checker.MinioBucket = minioProvider.GetBucket()
	}

	healthHandler := health.NewHandler(checker)
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userService)
	messageHandler := message.NewHandler(messageService)
	uploadHandler := upload.NewHandler(minioProvider, logger)
	wsHandler := websocket.NewWSHandler(hub, tokens)

	r := router.NewRouter(logger, tokens)

	r.RegisterHealthRoutes(healthHandler)
	r.RegisterAuthRoutes(authHandler)
	r.RegisterUserRoutes(userHandler)
	r.RegisterMessageRoutes(messageHandler)
	r.RegisterUploadRoutes(uploadHandler)
	r.RegisterWebSocketRoutes(wsHandler)

	return &Application{
		Router: r,
		DB:     dbConn,
	}, nil
}
