package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/funnyjoke/internal/config"
	"github.com/AdamBeresnev/funnyjoke/internal/db"
	"github.com/AdamBeresnev/funnyjoke/internal/middleware"
	"github.com/AdamBeresnev/funnyjoke/internal/service"
	"github.com/AdamBeresnev/funnyjoke/internal/session"
	"github.com/AdamBeresnev/funnyjoke/internal/store"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var backends session.Backends

	var sqlDB *sqlx.DB
	if cfg.UserStore == "sqlite" || cfg.SessionStore == "sqlite" {
		sqlDB, err = db.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := db.RunMigrations(sqlDB.DB); err != nil {
			return err
		}
		backends.SQL = sqlDB.DB
	}

	var mongoDB *mongo.Database
	if cfg.UserStore == "mongo" || cfg.SessionStore == "mongo" {
		client, err := store.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		mongoDB = client.Database(cfg.MongoDatabase)
		backends.Mongo = mongoDB
	}

	if cfg.SessionStore == "redis" {
		var client *goredis.Client
		client, err = session.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer client.Close()
		backends.Redis = client
	}

	var repo service.UserRepository
	switch cfg.UserStore {
	case "memory":
		slog.Warn("using in-memory user store; accounts are lost on restart")
		repo = store.NewMemoryUserStore()
	case "mongo":
		mongoStore := store.NewMongoUserStore(mongoDB)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			return err
		}
		repo = mongoStore
	default:
		repo = store.NewUserStore(sqlDB)
	}

	sessionManager, err := session.New(cfg, backends)
	if err != nil {
		return err
	}

	app := &application{
		cfg:       cfg,
		sessions:  sessionManager,
		users:     service.NewUserService(repo, service.NewPasswordHasher(service.DefaultBcryptCost)),
		providers: middleware.InitAuth(cfg),
		deletion: service.NewDeletionService(repo, service.DeletionConfig{
			AppSecret: cfg.Facebook.ClientSecret,
			BaseURL:   cfg.PublicURL(),
			MaxAge:    cfg.DeletionMaxAge,
		}),
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "url", cfg.PublicURL(),
			"user_store", cfg.UserStore, "session_store", cfg.SessionStore)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
