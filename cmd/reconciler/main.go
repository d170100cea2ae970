package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/wandelroutes/internal/adapters/postgres"
	"github.com/samirrijal/wandelroutes/internal/core/usecases"
	"github.com/samirrijal/wandelroutes/internal/pkg/config"
	"github.com/samirrijal/wandelroutes/internal/pkg/logging"
	"github.com/samirrijal/wandelroutes/internal/workflows"
)

func main() {
	cfg, err := config.Load("wandelroutes-reconciler")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// The cache is bypassed; the API instances drop their copies on the next TTL.
	routes := usecases.NewRouteService(postgres.NewRouteRepo(db), nil, nil)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.DistanceReconcileWorkflow)
	w.RegisterActivity(&workflows.ReconcileActivities{Routes: routes})

	scheduleReconcile(ctx, c, cfg.Temporal)

	slog.Info("reconciler worker started", "task_queue", cfg.Temporal.TaskQueue, "cron", cfg.Temporal.Cron)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// scheduleReconcile starts the cron run unless it is already scheduled.
func scheduleReconcile(ctx context.Context, c client.Client, cfg config.TemporalConfig) {
	if cfg.Cron == "" {
		slog.Info("no reconcile schedule configured")
		return
	}
	_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           workflows.ReconcileWorkflowID,
		TaskQueue:    cfg.TaskQueue,
		CronSchedule: cfg.Cron,
	}, workflows.DistanceReconcileWorkflow, workflows.ReconcileInput{})
	switch {
	case err == nil:
		slog.Info("reconcile scheduled", "cron", cfg.Cron)
	case temporal.IsWorkflowExecutionAlreadyStartedError(err):
		slog.Info("reconcile already scheduled", "workflow_id", workflows.ReconcileWorkflowID)
	default:
		slog.Error("schedule reconcile", "error", err)
	}
}
