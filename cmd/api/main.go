package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/memory-gate/internal/config"
	"github.com/jwebster45206/memory-gate/internal/handlers"
	"github.com/jwebster45206/memory-gate/internal/loader"
	"github.com/jwebster45206/memory-gate/internal/logger"
	"github.com/jwebster45206/memory-gate/internal/middleware"
	"github.com/jwebster45206/memory-gate/internal/preload"
	"github.com/jwebster45206/memory-gate/internal/services/events"
	"github.com/jwebster45206/memory-gate/internal/site"
	"github.com/jwebster45206/memory-gate/internal/storage"
	"github.com/jwebster45206/memory-gate/pkg/answer"
	"github.com/jwebster45206/memory-gate/pkg/gallery"
	"github.com/redis/go-redis/v9"
)

const assetsPrefix = "/assets/"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting memory gate",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"config_source", cfg.ConfigSource,
		"unlock_store", cfg.UnlockStore,
		"match_mode", cfg.MatchMode)

	fetchClient := &http.Client{Timeout: cfg.FetchTimeout}

	// A load failure is shown to visitors; the server still starts
	galleryCfg, loadErr := loadGallery(cfg, fetchClient, log)

	var store storage.UnlockStore
	var publisher events.Publisher = events.Nop{}
	var redisClient *redis.Client

	switch cfg.UnlockStore {
	case config.StoreRedis:
		redisStore, err := storage.NewRedisStore(cfg.RedisURL, cfg.UnlockTTL, log)
		if err != nil {
			log.Error("Failed to create Redis store", "error", err)
			os.Exit(1)
		}
		storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := redisStore.WaitForConnection(storageCtx); err != nil {
			storageCancel()
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
		storageCancel()
		log.Info("Storage connection established successfully", "ttl", cfg.UnlockTTL)

		store = redisStore
		redisClient = redisStore.Client()
		publisher = events.NewBroadcaster(redisClient, log)
	default:
		store = storage.NewMemoryStore()
		log.Info("Using in-memory unlock store; unlocks reset on restart")
	}

	s := site.New(site.Params{
		Config:           galleryCfg,
		LoadErr:          loadErr,
		Store:            store,
		Matcher:          answer.NewMatcher(cfg.MatchMode),
		WrongAnswerDelay: cfg.WrongAnswerDelay,
		Events:           publisher,
		Logger:           log,
		WaitForPreload:   cfg.PreloadImages,
	})

	preloadCtx, preloadCancel := context.WithCancel(context.Background())
	defer preloadCancel()
	if cfg.PreloadImages && loadErr == nil {
		warmer, err := preload.NewWarmer(fetchClient, cfg.PublicBaseURL, cfg.PreloadConcurrency, log)
		if err != nil {
			log.Error("Invalid preload configuration", "error", err)
			os.Exit(1)
		}
		go s.Preload(preloadCtx, warmer)
	}

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(s, log))

	mux.Handle("/v1/gallery", handlers.NewGalleryHandler(s, log))
	sectionsHandler := handlers.NewSectionsHandler(s, log)
	mux.Handle("/v1/sections/", sectionsHandler)
	mux.Handle("/v1/unlock", handlers.NewUnlockHandler(s, log))

	if redisClient != nil {
		mux.Handle("/v1/events/", handlers.NewEventsHandler(redisClient, log))
	}

	if cfg.ImagesDir != "" {
		mux.Handle(assetsPrefix, http.StripPrefix(assetsPrefix, http.FileServer(http.Dir(cfg.ImagesDir))))
	}

	mux.Handle("/", handlers.NewPagesHandler(s, cfg.WrongAnswerDelay, log))

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout removed to enable SSE streaming
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Stop preloading before the site goes away
	preloadCancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}

func loadGallery(cfg *config.Config, client *http.Client, log *slog.Logger) (*gallery.Config, error) {
	var src loader.Source
	switch cfg.ConfigSource {
	case config.SourceFile:
		src = loader.NewFileSource(cfg.DataDir)
	case config.SourceHTTP:
		src = loader.NewHTTPSource(cfg.ConfigBaseURL, client)
	default:
		src = loader.Bundled()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	defer cancel()

	galleryCfg, err := src.Load(ctx)
	if err != nil {
		log.Error("Failed to load gallery configuration", "source", src.Name(), "error", err)
		return nil, err
	}

	if cfg.ImagesDir != "" {
		scanned, err := loader.ScanImages(cfg.ImagesDir, assetsPrefix)
		if err != nil {
			log.Warn("Failed to scan images directory", "dir", cfg.ImagesDir, "error", err)
		} else {
			galleryCfg.Images = loader.MergeImages(galleryCfg.Images, scanned)
		}
	}

	if orphans := gallery.OrphanImageKeys(galleryCfg); len(orphans) > 0 {
		log.Warn("Image lists reference unknown sections", "sections", orphans)
	}

	log.Info("Gallery configuration loaded",
		"source", src.Name(),
		"sections", len(galleryCfg.Questions.Sections),
		"images", len(galleryCfg.AllImages()))
	return galleryCfg, nil
}
