package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/vlille/internal/adapters/http"
	natsadapter "github.com/samirrijal/vlille/internal/adapters/nats"
	"github.com/samirrijal/vlille/internal/adapters/vlillefeed"
	"github.com/samirrijal/vlille/internal/core/domain"
	"github.com/samirrijal/vlille/internal/core/ports"
	"github.com/samirrijal/vlille/internal/core/usecases"
	"github.com/samirrijal/vlille/internal/pkg/config"
	"github.com/samirrijal/vlille/internal/pkg/logging"
	"github.com/samirrijal/vlille/internal/pkg/telemetry"
)

const serviceName = "vlille-api"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(serviceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
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

	// NATS: publisher for station events, raw conn for the WebSocket relay,
	// subscriber to hear about poller reloads.
	var (
		publisher ports.EventPublisher
		natsConn  *nats.Conn
		sub       *natsadapter.Subscriber
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}

		sub, err = natsadapter.NewSubscriber(cfg.NATS.URL, serviceName)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
			sub = nil
		} else {
			defer sub.Close()
		}
	}

	// Feed + use cases
	feed := vlillefeed.New(cfg.Feed.BaseURL, nil, cfg.Feed.Timeout())
	stations := usecases.NewStationService(feed, publisher)
	network := usecases.NewNetwork(stations)

	deps := &http.Dependencies{
		Network:     network,
		NATS:        natsConn,
		LoadDetails: cfg.Feed.LoadDetails,
	}

	if sub != nil {
		err := sub.SubscribeNetworkLoaded(ctx, func(ctx context.Context, summary *domain.NetworkSummary) error {
			slog.Info("network reloaded upstream, invalidating", "stations", summary.Stations, "loaded_at", summary.LoadedAt)
			deps.Invalidate()
			return nil
		})
		if err != nil {
			slog.Warn("subscribe network events failed", "error", err)
		}
	}

	// Warm the network so /v1/ready turns green; a failure here is retried
	// lazily by the first request.
	warmCtx, warmCancel := context.WithTimeout(ctx, http.RequestTimeout)
	if err := network.Load(warmCtx, cfg.Feed.LoadDetails); err != nil {
		slog.Warn("initial network load failed", "error", err)
	}
	warmCancel()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "V'Lille API",
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "feed", cfg.Feed.BaseURL)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
