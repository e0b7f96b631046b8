package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ytstream/config"
	"ytstream/internal/handler"
	"ytstream/internal/service"
	"ytstream/internal/stream"
	"ytstream/internal/youtube"
	"ytstream/pkg/logger"
	"ytstream/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting YouTube stream server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("ytdlp_enabled", cfg.YtDlp.Enabled),
		zap.Bool("proxy", cfg.YouTube.HTTPProxy != "" || cfg.YouTube.SOCKSProxy != ""),
	)

	// Stream registry
	registry := stream.NewRegistry(time.Duration(cfg.Stream.StatsInterval) * time.Second)
	registry.Start()
	defer registry.Stop()

	// Initialize services
	sessions := youtube.NewManager(youtube.NewFactory(&cfg.YouTube))
	videoService := service.NewVideoService(
		sessions,
		youtube.NewExtractor(&cfg.YtDlp),
		youtube.NewSearcher(),
		cfg,
	)
	proxy := stream.NewProxy(registry, cfg.Stream.BufferKB*1024)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID(), logger.GinLogger(), middleware.Recovery())

	// Routes
	handler.RegisterRoutes(router,
		handler.NewYouTubeHandler(videoService, cfg),
		handler.NewStreamHandler(videoService, proxy, registry),
	)

	// Streams run for as long as the client reads, so there is no write timeout.
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info("Shutting down server...")

	// Cancel in-flight relays first so Shutdown does not wait on them
	registry.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server stopped")
}
