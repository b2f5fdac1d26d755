package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/imposter/internal/auth"
	"github.com/BradenHooton/imposter/internal/background"
	"github.com/BradenHooton/imposter/internal/config"
	"github.com/BradenHooton/imposter/internal/database"
	"github.com/BradenHooton/imposter/internal/handlers"
	"github.com/BradenHooton/imposter/internal/repositories"
	"github.com/BradenHooton/imposter/internal/routes"
	"github.com/BradenHooton/imposter/internal/services"
	pkgauth "github.com/BradenHooton/imposter/pkg/auth"
	pkghttp "github.com/BradenHooton/imposter/pkg/http"
	pkglogger "github.com/BradenHooton/imposter/pkg/logger"
)

const gameRateLimit = 30

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = pkglogger.New(os.Stdout, cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("db_driver", cfg.Database.Driver),
		slog.String("email_provider", cfg.Email.Provider),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(startCtx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		}
	}()

	emailService, err := newEmailService(startCtx, &cfg.Email, logger)
	if err != nil {
		return err
	}

	words, err := newWordSource(startCtx, &cfg.Game, logger)
	if err != nil {
		return err
	}

	hasher := pkgauth.NewHasher(cfg.Auth.BcryptCost)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	failureDelay := auth.NewFailureDelay(100*time.Millisecond, 150*time.Millisecond)

	verificationService := services.NewVerificationService(
		store.Users,
		hasher,
		emailService,
		logger,
		cfg.Auth.OTPExpiry,
		cfg.Auth.OTPMaxAttempts,
	)
	authService := services.NewAuthService(store.Users, hasher, tokenManager, failureDelay, logger)
	gameService := services.NewGameService(store.Games, words, logger)

	router := routes.NewRouter(routes.Handlers{
		Auth:   handlers.NewAuthHandler(verificationService, authService, logger),
		Game:   handlers.NewGameHandler(gameService, logger),
		Health: handlers.NewHealthHandler(store, store.Driver, logger),
	}, tokenManager, routes.Options{
		Env:            cfg.Server.Env,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IPConfig:       pkghttp.NewIPConfig(cfg.Server.TrustedProxies),
		AuthRateLimit:  cfg.Auth.RateLimit,
		GameRateLimit:  gameRateLimit,
	}, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupManager := background.NewCleanupManager(store.Games, logger, cfg.Game.CleanupInterval, cfg.Game.Retention)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

func openStore(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*repositories.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.NewConnection(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repositories.NewPostgresStore(db), nil

	case config.DriverMongo:
		db, err := database.NewMongoConnection(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		return repositories.NewMongoStore(db), nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return repositories.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newEmailService(ctx context.Context, cfg *config.EmailConfig, logger *slog.Logger) (services.EmailService, error) {
	switch cfg.Provider {
	case config.EmailProviderSES:
		svc, err := services.NewAWSSESEmailService(ctx, cfg.AWSRegion, cfg.FromAddress, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES email service: %w", err)
		}
		return svc, nil

	case config.EmailProviderSMTP:
		svc, err := services.NewSMTPEmailService(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			TLS:      cfg.SMTPTLS,
			From:     cfg.FromAddress,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP email service: %w", err)
		}
		return svc, nil

	default:
		logger.Warn("email provider is log; one-time codes are written to the log")
		return services.NewLogEmailService(logger), nil
	}
}

func newWordSource(ctx context.Context, cfg *config.GameConfig, logger *slog.Logger) (services.WordSource, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; using the built-in word list")
		return services.NewStaticWordSource(), nil
	}

	src, err := services.NewGeminiWordSource(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return src, nil
}
