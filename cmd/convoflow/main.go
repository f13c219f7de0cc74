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

	"github.com/redis/go-redis/v9"

	"github.com/convoflow/engine/internal/archive"
	"github.com/convoflow/engine/internal/config"
	"github.com/convoflow/engine/internal/delivery"
	"github.com/convoflow/engine/internal/engine"
	"github.com/convoflow/engine/internal/events"
	"github.com/convoflow/engine/internal/server"
	redisstore "github.com/convoflow/engine/internal/store/redis"
	"github.com/convoflow/engine/pkg/log"
)

type convoflow struct {
	cfg        *config.Config
	rdb        *redis.Client
	store      *redisstore.Store
	feed       *events.Feed
	archiver   *archive.Archiver
	sender     delivery.Sender
	engine     *engine.Engine
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var ErrOpenArchive = errors.New("failed to open archive bucket")

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &convoflow{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *convoflow) run() error {
	if err := s.initializeStores(); err != nil {
		return err
	}

	s.initializeEngine()
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *convoflow) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(env, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Convoflow starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("redis_addr", s.cfg.Store.Addr),
		slog.Int("redis_db", s.cfg.Store.DB),
		slog.String("redis_prefix", s.cfg.Store.Prefix),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *convoflow) initializeStores() error {
	s.rdb = redis.NewClient(&redis.Options{
		Addr:     s.cfg.Store.Addr,
		Password: s.cfg.Store.Password,
		DB:       s.cfg.Store.DB,
	})
	s.store = redisstore.New(s.rdb, s.cfg.Store.Prefix)
	s.feed = events.NewFeed(s.rdb, s.cfg.EventChannel)

	if s.cfg.ArchiveBucketURL != "" {
		arch, err := archive.New(
			context.Background(),
			s.cfg.ArchiveBucketURL, s.cfg.ArchivePrefix,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOpenArchive, err)
		}
		s.archiver = arch
	}

	return nil
}

func (s *convoflow) initializeEngine() {
	s.sender = delivery.NewHTTPSender(
		s.cfg.Delivery.Endpoint,
		s.cfg.Delivery.Token,
		s.cfg.Delivery.FallbackText,
		s.cfg.DeliveryTimeout(),
	)

	s.engine = engine.New(engine.Dependencies{
		Channels: s.store,
		Users:    s.store,
		Flows:    s.store,
		Sessions: s.store,
		Sender:   s.sender,
		Feed:     s.feed,
		Archiver: s.archiver,
	})
}

func (s *convoflow) startServer() {
	s.apiServer = server.NewServer(s.engine, s.feed, s.cfg.VerifyToken)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *convoflow) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()

	if s.archiver != nil {
		if err := s.archiver.Close(); err != nil {
			slog.Error("Archive close failed", log.Error(err))
		}
	}

	if err := s.rdb.Close(); err != nil {
		slog.Error("Redis close failed", log.Error(err))
	}

	slog.Info("Server exited")
}
