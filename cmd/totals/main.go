package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/totals/internal/api/rest"
	"github.com/fortuna/totals/internal/api/websocket"
	"github.com/fortuna/totals/internal/backfill"
	"github.com/fortuna/totals/internal/cache"
	"github.com/fortuna/totals/internal/config"
	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/ingest"
	"github.com/fortuna/totals/internal/ingest/odds"
	"github.com/fortuna/totals/internal/publisher"
	"github.com/fortuna/totals/internal/scheduler"
	"github.com/fortuna/totals/internal/service"
	"github.com/fortuna/totals/internal/store"
	"github.com/fortuna/totals/internal/summary"
)

const (
	serviceName    = "totals"
	serviceVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", os.Getenv("TOTALS_CONFIG"), "Path to YAML config file")
	flag.Parse()

	log.Printf("Starting %s v%s - NBA Totals Analytics Service", serviceName, serviceVersion)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Season datasets: Postgres first when enabled, then files
	files := dataset.NewFileSource(cfg.Datasets.Dir)
	var db *store.Database
	var dbSource dataset.Source
	if cfg.Postgres.Enabled {
		db, err = store.NewDatabase(cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("✓ Connected to database")

		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		dbSource = dataset.NewDBSource(db)
	}
	source := dataset.NewFallbackSource(dbSource, files)

	// Redis is optional: cache for live odds plus event streams
	var redisCache *cache.RedisCache
	var events service.EventPublisher
	var snapshotCache ingest.SnapshotCache
	if cfg.Redis.Enabled {
		redisCache = connectRedis(cfg.Redis)
		defer redisCache.Close()
		events = publisher.NewRedisStreamPublisher(redisCache.Client())
		snapshotCache = redisCache
		log.Println("✓ Redis publisher initialized")
	}

	var summarizer summary.Summarizer
	if cfg.Summary.Enabled {
		summarizer = summary.NewOllamaSummarizer(summary.OllamaConfig{
			BaseURL: cfg.Summary.BaseURL,
			Model:   cfg.Summary.Model,
			Timeout: cfg.Summary.Timeout,
		})
		log.Printf("✓ Match summaries via %s (%s)", cfg.Summary.BaseURL, cfg.Summary.Model)
	}

	seasons := service.NewSeasonService(source, cfg.Datasets.DefaultSeason, nil)
	if err := seasons.LoadDefault(ctx); err != nil {
		log.Printf("⚠️  Default season %s unavailable: %v (continuing with an empty snapshot)", cfg.Datasets.DefaultSeason, err)
	}

	analytics := service.NewAnalyticsService(seasons, service.Options{
		Live:       cfg.Live,
		Summarizer: summarizer,
		Events:     events,
	})

	// Backfill worker needs Postgres
	var backfillService *backfill.Service
	if db != nil {
		backfillService = backfill.NewService(db, files, nil)
		backfillService.OnImported(func(ctx context.Context, season string) {
			if season != seasons.DefaultSeason() {
				return
			}
			if err := seasons.ReloadDefault(ctx); err != nil {
				log.Printf("⚠️  Reloading %s after import failed: %v", season, err)
			}
		})
		backfillService.Start()
		log.Println("✓ Backfill service started")
	}

	wsServer := websocket.NewServer()

	// Live odds polling
	var liveSource rest.LiveSource
	var sched *scheduler.Orchestrator
	if cfg.Odds.APIKey != "" {
		liveIngester := ingest.NewLiveIngester(odds.New(cfg.Odds.BaseURL, cfg.Odds.APIKey), snapshotCache, cfg.Redis.OddsTTL)
		liveSource = liveIngester

		sched = scheduler.NewOrchestrator(liveIngester, analytics, wsServer, &scheduler.Config{
			LivePollInterval:     cfg.Scheduler.LivePollInterval,
			EnableLivePolling:    cfg.Scheduler.EnableLivePolling,
			MaxRetries:           cfg.Scheduler.MaxRetries,
			RetryDelay:           cfg.Scheduler.RetryDelay,
			MaxConsecutiveErrors: cfg.Scheduler.MaxConsecutiveErrors,
			SlowdownDelay:        cfg.Scheduler.SlowdownDelay,
		})
		go sched.Start(ctx)
		log.Println("✓ Scheduler started")
	} else {
		log.Println("⊘ ODDS_API_KEY not set, live signals disabled")
	}

	restServer := rest.NewServer(cfg.Server.RESTPort, analytics, liveSource, backfillService)
	go func() {
		log.Printf("Starting REST API server on port %s", cfg.Server.RESTPort)
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	go func() {
		if err := wsServer.Start(cfg.Server.WSPort); err != nil {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", cfg.Server.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s/ws/signals", cfg.Server.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket server shutdown error: %v", err)
	}
	if backfillService != nil {
		if err := backfillService.Shutdown(shutdownCtx); err != nil {
			log.Printf("Backfill shutdown error: %v", err)
		}
	}

	log.Printf("%s stopped", serviceName)
}

// connectRedis retries until Redis answers or the attempts run out
func connectRedis(cfg config.RedisConfig) *cache.RedisCache {
	log.Println("Connecting to Redis...")

	if cfg.Retries < 1 {
		cfg.Retries = 1
	}

	var redisCache *cache.RedisCache
	var err error
	for i := 0; i < cfg.Retries; i++ {
		redisCache, err = cache.NewRedisCache(cfg.URL)
		if err == nil {
			log.Println("✓ Connected to Redis")
			return redisCache
		}

		if i < cfg.Retries-1 {
			log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, cfg.Retries, err, cfg.Backoff)
			time.Sleep(cfg.Backoff)
		}
	}

	log.Fatalf("Failed to connect to Redis after %d attempts: %v", cfg.Retries, err)
	return nil
}
