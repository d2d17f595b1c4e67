package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	busalerts "github.com/theoremus-urban-solutions/bus-proximity-alerts"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/config"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/feed"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/internal/metrics"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/matcher"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/store"
)

func main() {
	mode := flag.String("mode", "serve", "serve|check|watch")
	configPath := flag.String("config", "", "path to config file (default: $BUSALERTS_CONFIG or ./config.yml)")
	flag.Parse()

	log := busalerts.NewLogger()
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Error("invalid timezone", slog.String("timezone", cfg.Timezone), slog.Any("err", err))
		os.Exit(1)
	}

	var source feed.Source
	switch cfg.Feed.Format {
	case "gtfsrt":
		source = feed.NewGTFSRTSource(cfg.Feed)
	default:
		source = feed.NewClient(cfg.Feed)
	}
	cache := feed.NewSnapshotCache(source, cfg.Feed.CacheTTL(), metrics.FeedObserver{})

	alerts := store.NewAlertStore(cfg.Alerts.StorePath, log)
	ledger := store.NewCooldownLedger(cfg.Alerts.LedgerPath, log)

	var notifier matcher.Notifier = matcher.LogNotifier{Log: log}
	if cfg.SMTP.Host != "" {
		password := os.Getenv(cfg.SMTP.PasswordEnv)
		if password == "" {
			log.Warn("smtp configured but password env is empty, logging notifications instead",
				slog.String("env", cfg.SMTP.PasswordEnv))
		} else {
			notifier = matcher.NewSMTPNotifier(cfg.SMTP, password)
		}
	}

	m := matcher.New(alerts, ledger, cache, notifier, loc, cfg.Alerts.ProximityKM, cfg.Alerts.Cooldown(), log)

	switch *mode {
	case "serve":
		srv := busalerts.NewServer(cfg, cache, alerts, loc, log)
		go runMatcherLoop(watchContext(), m, cfg.Alerts.CheckInterval(), log)
		srv.Start()
		srv.WaitForShutdown()
	case "check":
		// A single pass. An unreachable upstream is a skip, not a crash;
		// the next scheduled run will try again.
		if err := m.Run(context.Background(), time.Now()); err != nil {
			log.Warn("check skipped", slog.Any("err", err))
		}
	case "watch":
		runMatcherLoop(watchContext(), m, cfg.Alerts.CheckInterval(), log)
	default:
		log.Error("unknown mode", slog.String("mode", *mode))
		os.Exit(1)
	}
}

// watchContext is cancelled on SIGINT or SIGTERM.
func watchContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

// runMatcherLoop runs one pass immediately, then on every tick until the
// context is cancelled. Failed passes are already logged by the matcher.
func runMatcherLoop(ctx context.Context, m *matcher.Matcher, interval time.Duration, log *slog.Logger) {
	_ = m.Run(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("matcher loop stopped")
			return
		case now := <-ticker.C:
			_ = m.Run(ctx, now)
		}
	}
}
