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
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/wandelroutes/internal/adapters/http"
	natsadapter "github.com/samirrijal/wandelroutes/internal/adapters/nats"
	"github.com/samirrijal/wandelroutes/internal/adapters/postgres"
	"github.com/samirrijal/wandelroutes/internal/adapters/valkey"
	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/ports"
	"github.com/samirrijal/wandelroutes/internal/core/usecases"
	"github.com/samirrijal/wandelroutes/internal/core/viewsync"
	"github.com/samirrijal/wandelroutes/internal/pkg/config"
	"github.com/samirrijal/wandelroutes/internal/pkg/logging"
	"github.com/samirrijal/wandelroutes/internal/pkg/metrics"
	"github.com/samirrijal/wandelroutes/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("wandelroutes-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache (optional)
	var routeCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, "wandel:")
	if err != nil {
		slog.Warn("valkey unavailable, serving without cache", "error", err)
		cache = nil
	} else {
		routeCache = cache
		defer cache.Close()
	}

	// NATS (optional)
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, route events disabled", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	routeSvc := usecases.NewRouteService(postgres.NewRouteRepo(db), routeCache, publisher)

	// Other instances save routes too; drop our cached copies when they do.
	if routeCache != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable, cache relies on TTL", "error", err)
		} else {
			defer sub.Close()
			err = sub.SubscribeRouteEvents(ctx, func(ctx context.Context, ev *domain.RouteEvent) error {
				routeSvc.Invalidate(ctx, ev.RouteID)
				return nil
			})
			if err != nil {
				slog.Warn("subscribe route events", "error", err)
			}
		}
	}

	deps := &http.Dependencies{
		Routes:        routeSvc,
		OperatorToken: cfg.Auth.OperatorToken,
		MapSize:       viewsync.MapSize{Width: cfg.Editor.MapWidthPx, Height: cfg.Editor.MapHeightPx},
		DB:            db,
		Cache:         cache,
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}
	if cfg.Auth.OperatorToken == "" {
		slog.Warn("no operator token configured, every session is read-only")
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // long tracks carry thousands of points
		AppName:      "Wandelroutes API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats refreshes the connection pool gauges until ctx ends.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
