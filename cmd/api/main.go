package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/kalpovskii/todos/internal/app/handlers"
	"github.com/kalpovskii/todos/internal/app/repositories"
	"github.com/kalpovskii/todos/internal/app/services"
	"github.com/kalpovskii/todos/internal/config"
	"github.com/kalpovskii/todos/internal/kafka"
	"github.com/kalpovskii/todos/internal/logging"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

// newApp builds the router and everything behind it. The returned cleanup
// closes the optional Redis client and Kafka producer.
func newApp(ctx context.Context, cfg config.Config, logger *log.Logger) (http.Handler, func(), error) {
	repo := repositories.NewFileTodoRepo(cfg.DataFile)
	if err := repo.EnsureInitialized(ctx); err != nil {
		return nil, nil, err
	}

	opts := []services.Option{services.WithLogger(logger)}
	var closers []func() error

	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis is unreachable, list cache will miss", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()
		opts = append(opts, services.WithCache(repositories.NewRedisTodoCache(rdb)))
		closers = append(closers, rdb.Close)
		logger.Info("list cache enabled", "addr", cfg.RedisAddr)
	}

	if cfg.EventsEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, logger)
		opts = append(opts, services.WithEvents(producer))
		closers = append(closers, producer.Close)
		logger.Info("todo events enabled", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	}

	service := services.NewTodoService(repo, opts...)
	router := handlers.NewRouter(service, cfg.StaticDir, logger)

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("cleanup failed", "err", err)
			}
		}
	}
	return router, cleanup, nil
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	handler, cleanup, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ln, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logger.Info("Server is running at http://localhost:"+cfg.APIPort, "data", cfg.DataFile, "static", cfg.StaticDir)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
