package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authd/api/handler"
	apiMiddleware "authd/api/middleware"
	"authd/api/routes"
	"authd/config"
	"authd/internal/entity"
	"authd/internal/repository"
	"authd/internal/service"
	"authd/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	validate := validator.New()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	db := config.ConnectDB(cfg.DatabaseURL)
	if err := db.AutoMigrate(&entity.Account{}, &entity.TokenRecord{}, &entity.AuditLog{}); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	jwtManager := utils.JWTManager{
		Secret:          []byte(cfg.JWTSecret),
		Issuer:          cfg.JWTIssuer,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}

	store := repository.NewStore(db)
	txRunner := repository.NewTxRunner(db)

	var events service.EventProducer
	if cfg.NotifyURL != "" {
		events = service.NewWebhookEventProducer(cfg.NotifyURL, cfg.NotifyAPIKey)
	} else {
		logger.Warn("NOTIFY_URL not set, notification events disabled")
	}

	authService := service.NewAuthService(
		store,
		txRunner,
		service.BcryptSecretHasher{},
		service.JWTTokenSigner{Manager: &jwtManager},
		events,
		service.RealClock{},
		logger,
		service.AuthConfig{
			AccessTokenTTL:       cfg.AccessTokenTTL,
			RefreshTokenTTL:      cfg.RefreshTokenTTL,
			VerificationTokenTTL: cfg.VerificationTokenTTL,
			ResetTokenTTL:        cfg.ResetTokenTTL,
		},
	)

	authHandler := handler.NewAuthHandler(authService, validate)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &jwtManager}
	router := routes.NewRouter(app, authHandler, authMiddleware)
	router.RegisterRoutes()

	// Retention is not the lifecycle manager's job; this janitor deletes
	// token rows a day past expiry so the validator's scan stays small.
	go runTokenJanitor(store.Tokens, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
	logger.Info("server stopped")
}

func runTokenJanitor(tokens repository.TokenRecordRepository, logger *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		cutoff := time.Now().Add(-24 * time.Hour)
		if err := tokens.DeleteExpiredBefore(ctx, cutoff); err != nil {
			logger.WithError(err).Warn("expired token cleanup failed")
		}
		cancel()
	}
}
