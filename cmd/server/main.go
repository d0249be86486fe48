package main

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"bancard-connector/internal/charge"
	"bancard-connector/internal/config"
	"bancard-connector/internal/db"
	"bancard-connector/internal/logger"
	"bancard-connector/internal/metrics"
	"bancard-connector/internal/middleware"
	"bancard-connector/internal/webhook"
	"bancard-connector/vpos"

	"go.uber.org/zap"
)

var errMissingJWTSecret = errors.New("JWT_SECRET is required")

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(addr string, handler http.Handler) error {
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
		}
		return srv.ListenAndServe()
	}
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router, err := newServer(cfg, database)
	if err != nil {
		return err
	}

	logger.L().Info("server running",
		zap.String("port", cfg.AppPort),
		zap.String("bancard_environment", cfg.Bancard.Environment),
	)
	return startServerFunc(":"+cfg.AppPort, router)
}

func newServer(cfg *config.Config, database *sql.DB) (http.Handler, error) {
	if cfg.JWTSecret == "" {
		return nil, errMissingJWTSecret
	}

	connector, err := vpos.New(vpos.ConfigFromSettings(cfg.Bancard), vpos.WithLogger(logger.L()))
	if err != nil {
		return nil, err
	}

	chargeRepo := charge.NewRepository(database)
	chargeSvc := charge.NewService(chargeRepo, connector)

	webhookHandler := webhook.NewWebhookHandler(chargeSvc)

	return setupRouter(charge.NewHandler(chargeSvc), webhookHandler.BancardWebhookHandler, []byte(cfg.JWTSecret)), nil
}

func setupRouter(chargeHandler *charge.Handler, webhookHandler http.HandlerFunc, jwtSecret []byte) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	auth := middleware.Auth(jwtSecret)
	chargeHandler.Register(mux, func(h http.Handler) http.Handler {
		return auth(middleware.RateLimitMiddleware(h))
	})

	mux.Handle("POST "+middleware.WebhookPath, middleware.RateLimitMiddleware(webhookHandler))

	return logger.RequestIDMiddleware(logger.LoggingMiddleware(mux))
}
