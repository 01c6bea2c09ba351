package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/samirrijal/vlille/internal/adapters/nats"
	"github.com/samirrijal/vlille/internal/adapters/vlillefeed"
	"github.com/samirrijal/vlille/internal/core/ports"
	"github.com/samirrijal/vlille/internal/core/usecases"
	"github.com/samirrijal/vlille/internal/pkg/config"
	"github.com/samirrijal/vlille/internal/pkg/logging"
	"github.com/samirrijal/vlille/internal/pkg/metrics"
	"github.com/samirrijal/vlille/internal/pkg/telemetry"
)

const serviceName = "vlille-poller"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(serviceName, cfg.Log.Level, cfg.Log.Format)

	// SIGINT/SIGTERM cancel ctx, which also aborts an in-flight load.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(shutdownCtx)
			}()
		}
	}

	// Without NATS the poller still refreshes metrics, but nobody hears about it.
	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	feed := vlillefeed.New(cfg.Feed.BaseURL, nil, cfg.Feed.Timeout())
	network := usecases.NewNetwork(usecases.NewStationService(feed, publisher))

	if cfg.Poller.MetricsPort > 0 {
		app := fiber.New(fiber.Config{DisableStartupMessage: true, AppName: "V'Lille poller"})
		app.Get("/metrics", metrics.Handler())
		app.Get("/v1/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "healthy"})
		})
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Poller.MetricsPort)
			if err := app.Listen(addr); err != nil {
				slog.Error("metrics listener stopped", "addr", addr, "error", err)
			}
		}()
		defer func() { _ = app.Shutdown() }()
	}

	interval := cfg.Poller.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("V'Lille poller starting", "feed", cfg.Feed.BaseURL, "interval", interval.String())

	// Run once immediately
	poll(ctx, network)

	for {
		select {
		case <-ticker.C:
			poll(ctx, network)
		case <-ctx.Done():
			slog.Info("shutting down poller")
			return
		}
	}
}

// poll runs one detailed load. A failed cycle keeps the previous network
// and the next tick tries again.
func poll(ctx context.Context, network *usecases.Network) {
	start := time.Now()
	err := network.Load(ctx, true)
	metrics.ObserveNetworkLoad(start, network.Len(), err)
	if err != nil {
		slog.Error("poll failed", "error", err, "duration", time.Since(start).String())
		return
	}
	slog.Info("poll complete", "stations", network.Len(), "duration", time.Since(start).String())
}
