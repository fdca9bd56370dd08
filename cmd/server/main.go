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

	"github.com/rs/cors"

	"github.com/dcode-github/imovel_listing_system/cache"
	"github.com/dcode-github/imovel_listing_system/config"
	"github.com/dcode-github/imovel_listing_system/controllers"
	"github.com/dcode-github/imovel_listing_system/logging"
	"github.com/dcode-github/imovel_listing_system/routes"
	"github.com/dcode-github/imovel_listing_system/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	c, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	router := routes.NewRouter(controllers.Deps{Store: st, Cache: c}, log)

	corsOptions := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "Accept", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
	})

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        corsOptions.Handler(router),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server running", "port", cfg.Port, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server gracefully stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := config.ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("Error closing MongoDB connection", "error", err)
				return
			}
			log.Info("MongoDB connection closed")
		}
		return store.NewMongoStore(config.Collection(client, cfg.MongoDB)), closeFn, nil

	case config.DriverPostgres:
		db, err := config.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing PostgreSQL connection", "error", err)
			}
		}
		return store.NewPostgresStore(db), closeFn, nil

	default:
		log.Warn("Using in-memory storage, listings are lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}
}

// openCache prefers Redis when an address is configured and falls back to
// an in-process LRU otherwise.
func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewLRUCache(cfg.CacheSize, cfg.CacheTTL), func() {}, nil
	}

	rdb, err := config.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to Redis: %w", err)
	}
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
		}
	}
	return cache.NewRedisCache(rdb, cfg.CacheTTL), closeFn, nil
}
