package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "thumbio/internal/handler/http"
	wsHandler "thumbio/internal/handler/websocket"
	"thumbio/internal/hub"
	"thumbio/internal/infra/discovery"
	gormpersistence "thumbio/internal/infra/persistence/gorm"
	"thumbio/internal/infra/setup"
	redisstate "thumbio/internal/infra/state/redis"
	"thumbio/internal/middleware"
	"thumbio/internal/service"
	"thumbio/internal/worker"
)

// App holds every long-lived component of the server.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server

	hubCancel  context.CancelFunc
	advertiser *discovery.Advertiser
}

// NewApp loads configuration and builds the application.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := newLogger(cfg)
	log.Info("Configuration loaded successfully")

	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Infrastructure initialized successfully")

	canvasRepo := gormpersistence.NewGormCanvasRepository(db)
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)

	canvasService := service.NewCanvasService(canvasRepo, stateRepo, asynqClient, service.WithCacheTTL(cfg.CanvasCacheTTL))
	quotaService := service.NewQuotaService(stateRepo, cfg.QuotaDailyLimit)
	log.Info("Services initialized")

	hubInstance := hub.NewHub()
	workerServer := worker.NewWorkerServer(redisClientOpt, canvasService, log)

	router := NewRouter(cfg, log, Handlers{
		Canvas:    httpHandler.NewCanvasHandler(canvasService),
		Quota:     httpHandler.NewQuotaHandler(quotaService),
		Presence:  httpHandler.NewPresenceHandler(hubInstance),
		WebSocket: wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSAllowedOrigin),
	}, redisClient)

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		AsynqServer: workerServer,
		Hub:         hubInstance,
		HttpServer:  httpServer,
	}, nil
}

func newLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		gin.SetMode(gin.DebugMode)
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	// Packages log through the standard logger; keep it consistent.
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	return log
}

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Canvas    *httpHandler.CanvasHandler
	Quota     *httpHandler.QuotaHandler
	Presence  *httpHandler.PresenceHandler
	WebSocket *wsHandler.WebSocketHandler
}

// NewRouter mounts every route. Write routes require a JWT when
// JWT_SECRET is set.
func NewRouter(cfg *Config, log *logrus.Logger, h Handlers, redisClient *redis.Client) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORSAllowedOrigin))

	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	router.GET("/ws/room/:roomId", h.WebSocket.HandleConnection)

	api := router.Group("/api")
	if redisClient != nil {
		api.Use(middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	}
	auth := middleware.Auth(cfg.JWTSecret)

	api.GET("/rooms", h.Presence.ListRooms)
	api.GET("/rooms/:roomId/presence", h.Presence.RoomPresence)

	canvases := api.Group("/canvases")
	{
		canvases.GET("", h.Canvas.ListCanvases)
		canvases.POST("", auth, h.Canvas.CreateCanvas)
		canvases.GET("/:id", h.Canvas.GetCanvas)
		canvases.PUT("/:id", auth, h.Canvas.SaveCanvas)
		canvases.GET("/:id/export.pdf", h.Canvas.ExportCanvas)
	}

	api.GET("/quota", h.Quota.GetUsage)
	api.POST("/quota/consume", auth, h.Quota.Consume)
	return router
}

// Start launches the hub, the worker, mDNS and the HTTP server.
func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.hubCancel = cancel
	go a.Hub.Run(ctx)
	a.Log.Info("Hub routine started")

	if err := a.AsynqServer.Start(); err != nil {
		a.Log.Errorf("Worker server failed to start, saves fall back to synchronous writes: %v", err)
	}

	if a.Config.MDNSEnabled {
		port, _ := strconv.Atoi(a.Config.ServerPort)
		adv, err := discovery.Advertise(port, "path=/ws/room/")
		if err != nil {
			a.Log.Warnf("mDNS advertisement disabled: %v", err)
		} else {
			a.advertiser = adv
		}
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown stops components in reverse dependency order.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if err := a.advertiser.Shutdown(); err != nil {
		a.Log.Warnf("Error stopping mDNS advertisement: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// Hijacked websocket connections outlive the HTTP server; stopping the hub
	// sends each of them a close frame.
	if a.hubCancel != nil {
		a.hubCancel()
	}

	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			}
		}
	}
	a.Log.Info("Application shutdown complete.")
}
