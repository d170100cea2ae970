package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/usecases"
)

// Activity names, as invoked by DistanceReconcileWorkflow.
const (
	ActivityListRouteIDs   = "ListRouteIDs"
	ActivityReconcileRoute = "ReconcileRoute"
)

// ReconcileActivities holds the activity implementations for the reconcile workflow.
type ReconcileActivities struct {
	Routes *usecases.RouteService
}

// ListRouteIDs returns the IDs of every stored route.
func (a *ReconcileActivities) ListRouteIDs(ctx context.Context) ([]string, error) {
	routes, err := a.Routes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	ids := make([]string, len(routes))
	for i, r := range routes {
		ids[i] = r.ID
	}
	return ids, nil
}

// ReconcileRoute rewrites the stored distance of one route if it drifted.
// Routes that vanished or whose geometry cannot be decoded are not retried.
func (a *ReconcileActivities) ReconcileRoute(ctx context.Context, routeID string) (usecases.Reconciliation, error) {
	rec, err := a.Routes.ReconcileDistance(ctx, routeID)
	switch {
	case err == nil:
		if rec.Rewritten {
			activity.GetLogger(ctx).Info("distance rewritten", "route_id", routeID,
				"stored_km", rec.StoredKm, "computed_km", rec.ComputedKm)
		}
		return rec, nil
	case errors.Is(err, domain.ErrNotFound):
		return rec, temporal.NewNonRetryableApplicationError(err.Error(), "NotFound", err)
	case errors.Is(err, domain.ErrMalformedGeometry):
		return rec, temporal.NewNonRetryableApplicationError(err.Error(), "MalformedGeometry", err)
	default:
		return rec, err
	}
}
