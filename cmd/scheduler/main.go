package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/analytics"
	"github.com/darkmind/darkmind/internal/cache"
	"github.com/darkmind/darkmind/internal/db"
	"github.com/darkmind/darkmind/internal/pipeline"
	"github.com/darkmind/darkmind/internal/scheduler"
	"github.com/darkmind/darkmind/internal/settings"
	"github.com/darkmind/darkmind/internal/stats"
	"github.com/darkmind/darkmind/internal/trends"
	"github.com/darkmind/darkmind/pkg/config"
	"github.com/darkmind/darkmind/pkg/logging"
	"github.com/darkmind/darkmind/pkg/telemetry"
)

func main() {
	runNow := flag.Bool("run-now", false, "force one run immediately, ignoring the gate")
	showStats := flag.Bool("stats", false, "print the analytics summary and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Darkmind Scheduler")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Open the analytics database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer database.Close()

	store := analytics.NewStore(database)

	if *showStats {
		ctx := context.Background()
		fmt.Println(store.Summary(ctx).Render())
		fmt.Printf("  Best hour today : %02d:00\n", store.BestPostHour(ctx))
		if format, ok := store.BestFormat(ctx); ok {
			fmt.Printf("  Best format     : %s\n", format)
		} else {
			fmt.Println("  Best format     : no data yet")
		}
		fmt.Printf("  Videos today    : %d\n", store.TodayVideoCount(ctx))
		return
	}

	// Optional Redis cache for trend intelligence
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
	}
	defer redisCache.Close()

	// Optional trend-intelligence provider
	var provider trends.Provider
	if httpProvider, err := trends.NewHTTPProvider(&cfg.Trends); err != nil {
		logger.Warn("Trend provider misconfigured, continuing without trends", zap.Error(err))
	} else if httpProvider != nil {
		provider = trends.NewCachedProvider(httpProvider, redisCache)
	}

	settingsStore := settings.NewStore(cfg.Scheduler.SettingsPath)
	sched := scheduler.New(store, settingsStore, provider, cfg.Scheduler)

	runner, err := pipeline.NewExecRunner(&cfg.Pipeline)
	if err != nil {
		logger.Fatal("Pipeline runner unavailable", zap.Error(err))
	}

	// TikTok exposes no public stats API; its client is injected by
	// deployments that script one.
	var youtubeClient stats.PlatformClient
	if yc := stats.NewYouTubeClient(cfg.Stats.YouTubeAPIKey); yc != nil {
		youtubeClient = yc
	}
	fetcher := stats.NewFetcher(store, youtubeClient, nil,
		time.Duration(cfg.Stats.MaxAgeDays)*24*time.Hour)

	loop := scheduler.NewLoop(sched, store, runner, fetcher, cfg.Scheduler, cfg.Stats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *runNow {
		if err := loop.RunOnce(ctx, true); err != nil {
			logger.Error("Forced run failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	// Stop on interrupt
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down scheduler...")
		cancel()
	}()

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("Scheduler loop exited", zap.Error(err))
	}
	logger.Info("Scheduler exited")
}
