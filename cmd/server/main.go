package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"nnm-backend/internal/artwork"
	"nnm-backend/internal/clients"
	"nnm-backend/internal/config"
	"nnm-backend/internal/db"
	"nnm-backend/internal/events"
	"nnm-backend/internal/handlers"
	"nnm-backend/internal/mint"
	"nnm-backend/internal/router"
	"nnm-backend/internal/services"
	"nnm-backend/internal/ws"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if err := config.LoadConfig(configPath); err != nil {
		logrus.WithField("error", err.Error()).Fatal("Failed to load configuration")
	}
	cfg := config.AppConfig

	// ============ Registry connection ============
	dialCtx, cancelDial := context.WithTimeout(context.Background(), 30*time.Second)
	registry, err := clients.DialRegistry(dialCtx, cfg.Chain)
	cancelDial()
	if err != nil {
		logrus.WithField("error", err.Error()).Fatal("Failed to connect to name registry")
	}
	defer registry.Close()

	// ============ Artwork ============
	var renderer artwork.CardRenderer
	switch cfg.Artwork.ImageMode {
	case mint.ImageModeSVG:
		renderer = artwork.NewSVGRenderer(cfg.Artwork.RegistrationYear)
	default:
		renderer, err = artwork.NewRasterRenderer(cfg.Artwork.FontPath, cfg.Artwork.RegistrationYear)
		if err != nil {
			logrus.WithField("error", err.Error()).Fatal("Failed to initialize card renderer")
		}
	}
	metadataBuilder := artwork.NewMetadataBuilder(
		cfg.Artwork.Description,
		cfg.Artwork.ExternalURL,
		cfg.Artwork.Generation,
		cfg.Artwork.RegistrationYear,
		cfg.Artwork.Platform,
	)
	logrus.WithField("image_mode", cfg.Artwork.ImageMode).Info("🎨 Card renderer ready")

	// ============ Pinning ============
	pinata := clients.NewPinataClient(
		cfg.Pinata.BaseURL,
		cfg.Pinata.JWT,
		time.Duration(cfg.Pinata.Timeout)*time.Second,
	)

	// ============ Mint pipeline ============
	resolver := mint.NewResolver(registry, cfg.Chain.CostToleranceBps)
	tracker := mint.NewTracker()

	hub := ws.NewHub()
	tracker.AddListener(hub)

	if cfg.NATS.URL != "" {
		publisher, err := events.NewPublisher(
			cfg.NATS.URL,
			cfg.NATS.SubjectPrefix,
			time.Duration(cfg.NATS.Timeout)*time.Second,
		)
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("NATS unavailable, mint events disabled")
		} else {
			defer publisher.Close()
			tracker.AddListener(publisher)
		}
	}

	// ============ Database & index ============
	var indexService *services.AssetIndexService
	var recorder *services.AttemptRecorder
	if cfg.Index.Enabled {
		if err := db.Init(cfg.Database.DSN); err != nil {
			logrus.WithField("error", err.Error()).Fatal("Failed to initialize database")
		}

		recorder = services.NewAttemptRecorder(db.DB)
		tracker.AddListener(recorder)

		indexService = services.NewAssetIndexService(
			db.DB,
			registry,
			cfg.Index.IPFSGateway,
			time.Duration(cfg.Index.SyncInterval)*time.Second,
		)
		indexService.Start()
		defer indexService.Stop()
	}

	pipeline := mint.NewPipeline(
		renderer,
		metadataBuilder,
		pinata,
		resolver,
		registry,
		tracker,
		cfg.Artwork.ImageMode,
	)

	// ============ HTTP ============
	r := router.SetupRouter(
		handlers.NewMintHandler(pipeline, resolver),
		handlers.NewAssetHandler(indexService, registry),
		handlers.NewAdminAuthHandler(),
		handlers.NewAdminOpsHandler(indexService, recorder),
		handlers.NewWebSocketHandler(hub),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logrus.WithField("addr", addr).Info("🚀 nnm-backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("error", err.Error()).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("Forced shutdown")
	}
	logrus.Info("✅ Server stopped")
}
