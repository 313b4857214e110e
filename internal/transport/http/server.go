package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freets-backend/internal/cache"
	"freets-backend/internal/config"
	"freets-backend/internal/database"
	"freets-backend/internal/handler"
	"freets-backend/internal/queue"
	"freets-backend/internal/redis"
	"freets-backend/internal/repository"
	"freets-backend/internal/service"
	"freets-backend/internal/visibility"
	"freets-backend/internal/worker"
)

// Run wires the whole application together and serves until interrupted.
func Run() error {
	ctx := context.Background()

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Postgres
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis (feed cache + event stream)
	rdb, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	circleRepo := repository.NewCircleRepository(db)
	albumRepo := repository.NewAlbumRepository(db)
	freetRepo := repository.NewFreetRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	deviceTokenRepo := repository.NewDeviceTokenRepository(db)

	// 5. Visibility engine: albums resolve their viewer sets live against
	// current circle members and followers.
	engine := visibility.NewEngine(albumRepo, circleRepo, followRepo)

	// 6. Queue + feed cache
	feedCache := cache.NewFeedCache(rdb.Client)
	publisher := queue.NewPublisher(rdb.Client)
	consumer := queue.NewConsumer(rdb.Client)

	// 7. Services
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	userService := service.NewUserService(userRepo, followRepo)
	followService := service.NewFollowService(followRepo, userRepo, db, publisher)
	circleService := service.NewCircleService(circleRepo, userRepo)
	albumService := service.NewAlbumService(albumRepo, circleRepo, followRepo, freetRepo, userRepo, engine)
	freetService := service.NewFreetService(freetRepo, userRepo, publisher, db)
	commentService := service.NewCommentService(commentRepo, freetRepo, userRepo, db, publisher)
	feedService := service.NewFeedService(feedCache, freetRepo, followRepo, userRepo)

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	expoPush := service.NewExpoPushClient()
	notifService := service.NewNotificationService(notifRepo, deviceTokenRepo, userRepo, expoPush)

	// 8. Feed workers: consume the event stream, fan freets out to follower
	// feeds and create interaction notifications.
	workerHandler := worker.NewHandler(feedCache, followRepo, freetRepo)
	workerHandler.SetNotificationCreator(notifService)

	workerCfg := worker.DefaultManagerConfig()
	if cfg.WorkerCount > 0 {
		workerCfg.WorkerCount = cfg.WorkerCount
	}
	manager := worker.NewManager(consumer, workerHandler, workerCfg)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feed workers: %w", err)
	}
	defer manager.Stop()

	// 9. Router + HTTP server
	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService),
		UserHandler:         handler.NewUserHandler(userService),
		FollowHandler:       handler.NewFollowHandler(followService),
		CircleHandler:       handler.NewCircleHandler(circleService),
		AlbumHandler:        handler.NewAlbumHandler(albumService),
		FreetHandler:        handler.NewFreetHandler(freetService),
		CommentHandler:      handler.NewCommentHandler(commentService),
		FeedHandler:         handler.NewFeedHandler(feedService),
		MediaHandler:        handler.NewMediaHandler(mediaService, userService),
		NotificationHandler: handler.NewNotificationHandler(notifService),
		JWTSecret:           cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Serve in the background so we can wait for shutdown signals.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Printf("[Server] Received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("[Server] Shutdown complete")
	return nil
}
