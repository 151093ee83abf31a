package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/api"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/cfg"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/content"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/database"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/dedup"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/email"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting Newsletter Scraper server (version %s)...", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()
	log.Printf("Connected to database successfully")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Printf("Database migrations applied (version %d, dirty: %t)", version, dirty)

	log.Printf("Loading source configurations from %s...", appCfg.SourcesDir)
	configCache := sources.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load source configurations: ", err)
	}
	log.Printf("Loaded %d source configurations", configCache.GetConfigCount())

	sourceRepo := database.NewSourceRepository(db)
	itemRepo := database.NewItemRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})
	defer rdb.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis unreachable, seen-filter degraded: %v", err)
	} else {
		log.Printf("Connected to Redis successfully")
	}
	pingCancel()

	decoder := email.NewDecoder()
	extractor := content.NewExtractor()
	dedupService := dedup.NewService(itemRepo)
	seenFilter := dedup.NewSeenFilter(rdb)
	pipeline := tasks.NewPipeline(decoder, extractor, dedupService, itemRepo)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(configCache, sourceRepo, httpClient, seenFilter, pipeline)
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(configCache, sourceRepo, itemRepo, seenFilter, pipeline, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Webhook intake: http://localhost:%s/webhooks/inbound", appCfg.Port)
		log.Printf("  Health check:   http://localhost:%s/health", appCfg.Port)
		log.Printf("  Statistics:     http://localhost:%s/stats", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  List sources:   http://localhost:%s/api/sources (requires API key)", appCfg.Port)
			log.Printf("  Source details: http://localhost:%s/api/sources/<name>/details (requires API key)", appCfg.Port)
			log.Printf("  Force poll:     http://localhost:%s/api/sources/<name>/poll (POST, requires API key)", appCfg.Port)
			log.Printf("  List items:     http://localhost:%s/api/items?user_id=<id> (requires API key)", appCfg.Port)
		} else {
			log.Printf("  API endpoints:  DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Newsletter Scraper server started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("Newsletter Scraper server shutdown complete")
}
