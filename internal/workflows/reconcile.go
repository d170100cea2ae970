package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/wandelroutes/internal/core/usecases"
)

// ReconcileWorkflowID is the ID of the scheduled reconcile run.
const ReconcileWorkflowID = "distance-reconcile"

// DefaultReconcileBatchSize is the number of routes one run reconciles before
// it continues as new with the rest.
const DefaultReconcileBatchSize = 200

// ReconcileInput limits a run to some routes. Empty means every route.
// Report carries the totals of earlier runs of the same reconcile.
type ReconcileInput struct {
	RouteIDs  []string
	BatchSize int
	Report    ReconcileReport
}

// ReconcileReport summarises one run.
type ReconcileReport struct {
	Checked   int
	Rewritten int
	Failed    []string
}

// DistanceReconcileWorkflow recomputes the distance of every route from its
// geometry and rewrites the stored value where it drifted. A route that fails
// is reported and does not stop the run. After BatchSize routes the workflow
// continues as new so its history stays bounded.
func DistanceReconcileWorkflow(ctx workflow.Context, input ReconcileInput) (ReconcileReport, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	ids := input.RouteIDs
	if len(ids) == 0 {
		if err := workflow.ExecuteActivity(ctx, ActivityListRouteIDs).Get(ctx, &ids); err != nil {
			return ReconcileReport{}, err
		}
	}
	batch := input.BatchSize
	if batch <= 0 {
		batch = DefaultReconcileBatchSize
	}
	n := min(batch, len(ids))
	logger.Info("Starting distance reconcile", "routes", len(ids), "batch", n)

	report := input.Report
	for _, id := range ids[:n] {
		var rec usecases.Reconciliation
		if err := workflow.ExecuteActivity(ctx, ActivityReconcileRoute, id).Get(ctx, &rec); err != nil {
			logger.Warn("route not reconciled", "route_id", id, "error", err)
			report.Failed = append(report.Failed, id)
			continue
		}
		report.Checked++
		if rec.Rewritten {
			report.Rewritten++
		}
	}

	if rest := ids[n:]; len(rest) > 0 {
		logger.Info("Continuing distance reconcile", "remaining", len(rest))
		return ReconcileReport{}, workflow.NewContinueAsNewError(ctx, DistanceReconcileWorkflow,
			ReconcileInput{RouteIDs: rest, BatchSize: batch, Report: report})
	}

	logger.Info("Distance reconcile finished",
		"checked", report.Checked, "rewritten", report.Rewritten, "failed", len(report.Failed))
	return report, nil
}
