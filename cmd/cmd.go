package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dating-api/internal/config"
	"dating-api/internal/handlers"
	"dating-api/internal/identity"
	"dating-api/internal/imagestore"
	"dating-api/internal/push"
	"dating-api/internal/repository"
	"dating-api/internal/repository/postgres"
	"dating-api/internal/repository/sqlite"
	"dating-api/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	path := os.Getenv("DATING_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Connect to database and apply migrations
	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer closeStore()
	log.Info().Str("driver", cfg.Database.Driver).Msg("Database ready")

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Images.Provider).Msg("Failed to create image store")
	}

	apnsSender, webPushSender := newPushSenders(cfg.Push)

	// Initialize services
	wsHub := services.NewWSHub()
	notifier := services.NewDispatcher(wsHub, store.Users, apnsSender, webPushSender)
	tokens := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)

	var verifier services.IdentityVerifier
	if cfg.Google.ClientID != "" {
		verifier = identity.NewGoogleVerifier()
	}

	authService := services.NewAuthService(store.Users, tokens, verifier, cfg.Google.ClientID)
	userService := services.NewUserService(store.Users)
	likeService := services.NewLikeService(store.Likes, store.Users, notifier)
	photoService := services.NewPhotoService(store.Photos, images, notifier)
	messageService := services.NewMessageService(store.Messages, store.Users, notifier)
	adminService := services.NewAdminService(store.Users)

	// Setup router
	router := handlers.NewRouter(handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Users:     handlers.NewUserHandler(userService),
		Likes:     handlers.NewLikeHandler(likeService),
		Photos:    handlers.NewPhotoHandler(photoService, cfg.Images.MaxUploadMB),
		Messages:  handlers.NewMessageHandler(messageService),
		Admin:     handlers.NewAdminHandler(adminService, photoService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, tokens, messageService),
	}, handlers.RouterConfig{
		Tokens:         tokens,
		Activity:       userService,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// hijacked websocket connections are not closed by Shutdown
	wsHub.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.DSN())
		if err != nil {
			return repository.Store{}, nil, err
		}
		if err := sqlite.Migrate(ctx, db); err != nil {
			db.Close()
			return repository.Store{}, nil, err
		}
		return sqlite.NewStore(db), func() { db.Close() }, nil
	default:
		pool, err := postgres.Connect(ctx, cfg.DSN())
		if err != nil {
			return repository.Store{}, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return repository.Store{}, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil
	}
}

func newImageStore(ctx context.Context, cfg *config.Config) (imagestore.Store, error) {
	if cfg.Images.Provider == "s3" {
		return imagestore.NewS3Store(ctx, imagestore.S3Config{
			Region:        cfg.AWS.Region,
			Bucket:        cfg.AWS.S3Bucket,
			AccessKey:     cfg.AWS.AccessKey,
			SecretKey:     cfg.AWS.SecretKey,
			Endpoint:      cfg.AWS.Endpoint,
			PublicBaseURL: cfg.AWS.PublicBaseURL,
			Prefix:        cfg.Images.Folder,
		})
	}
	return imagestore.NewCloudinaryStore(cfg.Images.CloudinaryURL, cfg.Images.Folder)
}

// newPushSenders returns nil senders for channels without credentials
func newPushSenders(cfg config.PushConfig) (apnsSender, webPushSender services.PushSender) {
	if cfg.APNS.KeyFile != "" {
		sender, err := push.NewAPNSSender(push.APNSConfig{
			KeyFile:    cfg.APNS.KeyFile,
			KeyID:      cfg.APNS.KeyID,
			TeamID:     cfg.APNS.TeamID,
			Topic:      cfg.APNS.Topic,
			Production: cfg.APNS.Production,
		})
		if err != nil {
			log.Error().Err(err).Msg("APNs disabled")
		} else {
			apnsSender = sender
			log.Info().Bool("production", cfg.APNS.Production).Msg("APNs enabled")
		}
	}
	if cfg.WebPush.VAPIDPrivateKey != "" {
		webPushSender = push.NewWebPushSender(push.WebPushConfig{
			Subscriber:      cfg.WebPush.Subscriber,
			VAPIDPublicKey:  cfg.WebPush.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.WebPush.VAPIDPrivateKey,
		})
		log.Info().Msg("Web Push enabled")
	}
	return apnsSender, webPushSender
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
