package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/5w1tchy/book-art/internal/api/handlers/uploads"
	"github.com/5w1tchy/book-art/internal/api/router"
	"github.com/5w1tchy/book-art/internal/auth"
	"github.com/5w1tchy/book-art/internal/config"
	"github.com/5w1tchy/book-art/internal/logging"
	"github.com/5w1tchy/book-art/internal/metrics"
	"github.com/5w1tchy/book-art/internal/repository/sqlconnect"
	jwtutil "github.com/5w1tchy/book-art/internal/security/jwt"
	"github.com/5w1tchy/book-art/internal/security/password"
	storage "github.com/5w1tchy/book-art/internal/storage/s3"
)

func main() {
	// .env is a dev convenience; real deployments set the environment directly
	_ = godotenv.Load()
	_ = godotenv.Load("../../.env")

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	for _, w := range cfg.HardeningWarnings() {
		logging.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres
	db, err := sqlconnect.ConnectDB(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	logging.Info().Msg("connected to database")

	if cfg.Database.AutoMigrate {
		if err := sqlconnect.Migrate(ctx, db); err != nil {
			logging.Fatal().Err(err).Msg("migration failed")
		}
	}
	if err := metrics.RegisterDB(db); err != nil {
		logging.Warn().Err(err).Msg("db stats collector not registered")
	}

	// Redis (optional)
	rdb, err := newRedis(ctx, cfg.Redis)
	if err != nil {
		logging.Fatal().Err(err).Msg("redis connection failed")
	}
	if rdb != nil {
		defer rdb.Close()
		logging.Info().Msg("connected to redis")
	}

	// Object storage (optional)
	var presigner uploads.Presigner
	if cfg.Storage.Bucket != "" {
		s3c, err := storage.NewClient(ctx, cfg.Storage)
		if err != nil {
			logging.Fatal().Err(err).Msg("object storage")
		}
		presigner = s3c
	}

	// Auth
	sessions := auth.NewSessions(jwtutil.New(jwtutil.FromConfig(cfg.Auth)), rdb)
	authH := auth.New(
		auth.NewSQLStore(db),
		sessions,
		password.New(password.FromConfig(cfg.Auth)),
		cfg.Auth.AdminEmails,
	)

	handler := router.Router(router.Deps{
		Config:   cfg,
		DB:       db,
		RDB:      rdb,
		Auth:     authH,
		Sessions: sessions,
		Uploads:  presigner,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Bool("tls", cfg.Server.TLSCertFile != "").Msg("server is running")
		if cfg.Server.TLSCertFile != "" {
			errCh <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
