package workflows_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/geometry"
	"github.com/samirrijal/wandelroutes/internal/core/usecases"
	"github.com/samirrijal/wandelroutes/internal/workflows"
)

const walk = `{"type":"LineString","coordinates":[[3.98,50.93],[3.985,50.935],[3.99,50.94]]}`

type memRouteRepo struct {
	mu     sync.Mutex
	routes map[string]domain.Route
	order  []string
}

func newMemRouteRepo(routes ...domain.Route) *memRouteRepo {
	m := &memRouteRepo{routes: map[string]domain.Route{}}
	for _, r := range routes {
		m.routes[r.ID] = r
		m.order = append(m.order, r.ID)
	}
	return m
}

func (m *memRouteRepo) Create(ctx context.Context, r *domain.Route) (string, error) {
	return "", domain.ErrPersistence
}

func (m *memRouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *memRouteRepo) List(ctx context.Context) ([]domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Route, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.routes[id])
	}
	return out, nil
}

func (m *memRouteRepo) Update(ctx context.Context, r *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[r.ID]; !ok {
		return domain.ErrNotFound
	}
	m.routes[r.ID] = *r
	return nil
}

func (m *memRouteRepo) Delete(ctx context.Context, id string) error {
	return domain.ErrPersistence
}

func walkKm(t *testing.T) float64 {
	t.Helper()
	p, err := geometry.Decode([]byte(walk))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p.DistanceKm()
}

func route(id string, km float64, geom string) domain.Route {
	return domain.Route{ID: id, Name: id, Difficulty: domain.DifficultyEasy, DistanceKm: km, Geometry: json.RawMessage(geom)}
}

func runReconcile(t *testing.T, repo *memRouteRepo, input workflows.ReconcileInput) workflows.ReconcileReport {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.DistanceReconcileWorkflow)
	env.RegisterActivity(&workflows.ReconcileActivities{
		Routes: usecases.NewRouteService(repo, nil, nil),
	})

	env.ExecuteWorkflow(workflows.DistanceReconcileWorkflow, input)

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report workflows.ReconcileReport
	if err := env.GetWorkflowResult(&report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return report
}

func TestDistanceReconcile_RewritesDrift(t *testing.T) {
	km := walkKm(t)
	repo := newMemRouteRepo(
		route("stale", 0.63, walk),
		route("fresh", km, walk),
	)

	report := runReconcile(t, repo, workflows.ReconcileInput{})

	if report.Checked != 2 || report.Rewritten != 1 || len(report.Failed) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	stale, _ := repo.GetByID(context.Background(), "stale")
	if stale.DistanceKm != km {
		t.Errorf("expected stored distance %f, got %f", km, stale.DistanceKm)
	}
}

func TestDistanceReconcile_SkipsBrokenRoutes(t *testing.T) {
	repo := newMemRouteRepo(
		route("broken", 1, `{"type":"Point","coordinates":[3.98,50.93]}`),
		route("ok", 0, walk),
	)

	report := runReconcile(t, repo, workflows.ReconcileInput{RouteIDs: []string{"broken", "gone", "ok"}})

	if report.Checked != 1 || report.Rewritten != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Failed) != 2 || report.Failed[0] != "broken" || report.Failed[1] != "gone" {
		t.Errorf("expected broken and gone to fail, got %v", report.Failed)
	}
	broken, _ := repo.GetByID(context.Background(), "broken")
	if broken.DistanceKm != 1 {
		t.Errorf("undecodable route must keep its stored distance, got %f", broken.DistanceKm)
	}
}

func TestDistanceReconcile_ContinuesAsNewPerBatch(t *testing.T) {
	km := walkKm(t)
	repo := newMemRouteRepo(
		route("a", 0.63, walk),
		route("b", 0.63, walk),
		route("c", 0.63, walk),
	)

	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.DistanceReconcileWorkflow)
	env.RegisterActivity(&workflows.ReconcileActivities{
		Routes: usecases.NewRouteService(repo, nil, nil),
	})
	env.ExecuteWorkflow(workflows.DistanceReconcileWorkflow, workflows.ReconcileInput{BatchSize: 2})

	var can *workflow.ContinueAsNewError
	if err := env.GetWorkflowError(); !errors.As(err, &can) {
		t.Fatalf("expected continue-as-new after the first batch, got %v", err)
	}
	var next workflows.ReconcileInput
	if err := converter.GetDefaultDataConverter().FromPayloads(can.Input, &next); err != nil {
		t.Fatalf("decode next input: %v", err)
	}
	if len(next.RouteIDs) != 1 || next.RouteIDs[0] != "c" || next.BatchSize != 2 {
		t.Fatalf("unexpected next input %+v", next)
	}
	if next.Report.Checked != 2 || next.Report.Rewritten != 2 {
		t.Errorf("unexpected carried report %+v", next.Report)
	}
	c, _ := repo.GetByID(context.Background(), "c")
	if c.DistanceKm != 0.63 {
		t.Errorf("route outside the first batch was touched: %f", c.DistanceKm)
	}

	report := runReconcile(t, repo, next)
	if report.Checked != 3 || report.Rewritten != 3 {
		t.Fatalf("unexpected final report %+v", report)
	}
	c, _ = repo.GetByID(context.Background(), "c")
	if c.DistanceKm != km {
		t.Errorf("expected stored distance %f, got %f", km, c.DistanceKm)
	}
}
