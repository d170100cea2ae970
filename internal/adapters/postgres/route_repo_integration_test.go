//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/wandelroutes/internal/adapters/postgres"
	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/geometry"
	"github.com/samirrijal/wandelroutes/internal/pkg/config"
)

func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("wandelroutes-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestRouteRepo_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewRouteRepo(db)
	ctx := context.Background()

	path, _ := domain.NewPath(
		domain.GeoPoint{Lat: 50.930, Lon: 3.980},
		domain.GeoPoint{Lat: 50.935, Lon: 3.985},
	)
	raw, err := geometry.Encode(path)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	route := &domain.Route{
		Name:       "Integratie",
		Difficulty: domain.DifficultyEasy,
		DistanceKm: path.DistanceKm(),
		Geometry:   raw,
		Gehuchten:  []string{"Nieuwerkerken"},
	}
	id, err := repo.Create(ctx, route)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), id) })

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	back, err := geometry.Decode(got.Geometry)
	if err != nil {
		t.Fatalf("stored geometry does not decode: %v", err)
	}
	if !back.Equal(path) {
		t.Errorf("geometry changed in storage: %v", back.Points())
	}
	if len(got.Gehuchten) != 1 || got.Highlights == nil {
		t.Errorf("arrays not stored: %+v / %+v", got.Gehuchten, got.Highlights)
	}

	got.Name = "Hernoemd"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Update(ctx, got); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating a deleted route, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a malformed id, got %v", err)
	}
}
