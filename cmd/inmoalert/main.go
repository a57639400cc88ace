package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/jcastillo/inmoalert/internal/api"
	"github.com/jcastillo/inmoalert/internal/clients/fetch"
	"github.com/jcastillo/inmoalert/internal/config"
	"github.com/jcastillo/inmoalert/internal/entities"
	"github.com/jcastillo/inmoalert/internal/logger"
	"github.com/jcastillo/inmoalert/internal/metrics"
	"github.com/jcastillo/inmoalert/internal/notifications"
	"github.com/jcastillo/inmoalert/internal/repositories"
	"github.com/jcastillo/inmoalert/internal/services"
	"github.com/jcastillo/inmoalert/internal/sources"
)

func buildRunner(cfg *config.Config, dbContext *repositories.DbContext, bus EventBus.Bus) (*services.AlertRunner, error) {

	selectors, err := sources.LoadSelectors(cfg.Scraper.SelectorsFile)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewClient(fetch.Options{
		Timeout:    cfg.Scraper.FetchTimeout,
		MaxRetries: cfg.Scraper.MaxRetries,
		BaseDelay:  cfg.Scraper.RetryBaseDelay,
	})
	if cfg.Scraper.MaxRequestsPerSecond > 0 {
		fetcher.SetRateLimit(cfg.Scraper.MaxRequestsPerSecond)
	}

	enabled := make([]entities.Source, len(cfg.Scraper.Sources))
	for i, name := range cfg.Scraper.Sources {
		if enabled[i], err = entities.ToSource(name); err != nil {
			return nil, err
		}
	}

	listings := repositories.NewListingsRepository(dbContext.DB)
	deliveries := repositories.NewDeliveriesRepository(dbContext.DB)
	alerts := repositories.NewAlertsRepository(dbContext.DB)
	audit := repositories.NewAuditLogRepository(dbContext.DB)

	deduper := services.NewDeduper(listings, deliveries)
	notifier := notifications.NewEmailNotifier(cfg.Notifier)

	return services.NewAlertRunner(bus, sources.NewRegistry(selectors), fetcher, deduper,
		notifier, audit, alerts, services.RunnerConfig{
			Sources:              enabled,
			MaxPages:             cfg.Scraper.MaxPages,
			MaxListingsPerSource: cfg.Scraper.MaxListingsPerSource,
			MinSourceDelay:       cfg.Scraper.RequestDelay,
			MaxSourceDelay:       3 * cfg.Scraper.RequestDelay,
			RequestDelay:         cfg.Scraper.RequestDelay,
		})
}

func main() {

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.Register()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	bus := EventBus.New()

	runner, err := buildRunner(cfg, dbContext, bus)
	if err != nil {
		log.Fatalf("can't create alert runner: %v", err)
	}

	scheduler, err := services.NewScheduler(runner, cfg.Scraper.CronSchedule)
	if err != nil {
		log.Fatalf("can't create scheduler: %v", err)
	}
	defer scheduler.Stop()

	cleaner, err := services.NewAuditCleaner(repositories.NewAuditLogRepository(dbContext.DB),
		cfg.Scraper.AuditRetentionDays)
	if err != nil {
		log.Fatalf("can't create audit cleaner: %v", err)
	}
	defer cleaner.Stop()

	server := api.NewServer(cfg.API, runner)
	go server.Run()

	<-ctx.Done()

	log.Info("Shutting down services...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Errorf("api server shutdown: %v", err)
	}
	log.Info("Services stopped.")
}
