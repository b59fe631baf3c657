package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"revreport/amocrm"
	"revreport/config"
	"revreport/events"
	"revreport/notify"
	"revreport/observability"
	"revreport/service"
	"revreport/worker"

	log "github.com/sirupsen/logrus"
)

// app holds the wired pipeline for one process lifetime
type app struct {
	cfg     *config.Config
	metrics *observability.MetricsProvider
	service *service.ReportService
}

// buildApp loads configuration and wires the pipeline. A configuration error
// surfaces here, before any network call.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	bus := events.NewBus()
	metrics.BindEventBus(bus)

	crm := amocrm.NewClient(cfg.CRMBaseURL(), cfg.AmoToken,
		amocrm.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		amocrm.WithMaxRetries(cfg.MaxRetries),
		amocrm.WithMetrics(metrics),
		amocrm.WithEventPublisher(bus),
	)

	telegram, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.AdminChatIDs, cfg.ChartEnabled, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram notifier: %w", err)
	}
	notifiers := []service.Notifier{telegram}

	if cfg.DiscordEnabled() {
		discord, err := notify.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannelID, cfg.ChartEnabled, bus)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		notifiers = append(notifiers, discord)
		log.Info("Discord delivery channel enabled")
	}

	return &app{
		cfg:     cfg,
		metrics: metrics,
		service: service.NewReportService(crm, notifiers, bus, cfg),
	}, nil
}

func (a *app) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.metrics.ForceFlush(shutdownCtx); err != nil {
		log.Errorf("Failed to flush metrics: %v", err)
	}
	if err := a.metrics.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to shut down metrics: %v", err)
	}
}

// parseReportDate interprets a backfill date argument in the report timezone,
// so the window covers the requested calendar day regardless of the zone's
// UTC offset
func parseReportDate(arg string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", arg, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", arg, err)
	}
	return date, nil
}

// RunOnce executes a single report run (cron mode). An empty dateArg means
// today; otherwise dateArg selects the day to backfill.
func RunOnce(ctx context.Context, dateArg string) error {
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown()

	date := time.Now().In(a.cfg.ReportLocation)
	if dateArg != "" {
		date, err = parseReportDate(dateArg, a.cfg.ReportLocation)
		if err != nil {
			return err
		}
	}

	stats, err := a.service.Run(ctx, date)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"date":   date.Format("2006-01-02"),
		"sent":   stats.Sent,
		"failed": stats.Failed,
	}).Info("Report run completed")
	return nil
}

// RunDaemon runs the internal daily scheduler until the context is cancelled
func RunDaemon(ctx context.Context) error {
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown()

	stopWorker := worker.NewDailyWorker(a.service, a.cfg.ReportHour, a.cfg.ReportLocation).Start(ctx)
	defer stopWorker()

	if a.cfg.HealthAddr != "" {
		health, err := worker.StartHealthServer(a.cfg.HealthAddr)
		if err != nil {
			return fmt.Errorf("failed to start health listener: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := health.Shutdown(shutdownCtx); err != nil {
				log.Errorf("Health listener shutdown failed: %v", err)
			}
		}()
	}

	log.Infof("Daemon running in %s mode", a.cfg.Environment)
	<-ctx.Done()
	log.Info("Shutting down daemon")
	return nil
}
