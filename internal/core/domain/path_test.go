package domain_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

var (
	aalstA = domain.GeoPoint{Lat: 50.930, Lon: 3.980}
	aalstB = domain.GeoPoint{Lat: 50.935, Lon: 3.985}
)

func randomPoint(r *rand.Rand) domain.GeoPoint {
	return domain.GeoPoint{Lat: r.Float64()*180 - 90, Lon: r.Float64()*360 - 180}
}

func TestDistanceMeters_SymmetricAndZeroOnSelf(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a, b := randomPoint(r), randomPoint(r)
		if ab, ba := domain.DistanceMeters(a, b), domain.DistanceMeters(b, a); ab != ba {
			t.Fatalf("distance not symmetric for %v %v: %v != %v", a, b, ab, ba)
		}
		if d := domain.DistanceMeters(a, a); d != 0 {
			t.Fatalf("distance to self = %v for %v", d, a)
		}
		if d := domain.DistanceMeters(a, b); d < 0 {
			t.Fatalf("negative distance %v", d)
		}
	}
}

func TestDistanceMeters_ShortWalk(t *testing.T) {
	got := domain.DistanceMeters(aalstA, aalstB) / 1000
	want := 0.657
	if math.Abs(got-want) > want*0.01 {
		t.Errorf("distance = %.4f km, want %.3f km ± 1%%", got, want)
	}
}

func TestPathDistanceKm_ShortPaths(t *testing.T) {
	if d := domain.PathDistanceKm(nil); d != 0 {
		t.Errorf("empty path distance = %v", d)
	}
	if d := domain.PathDistanceKm([]domain.GeoPoint{aalstA}); d != 0 {
		t.Errorf("single point distance = %v", d)
	}
	if d := domain.PathDistanceKm([]domain.GeoPoint{aalstA, aalstA}); d != 0 {
		t.Errorf("degenerate segment distance = %v", d)
	}
}

func TestPath_AppendThenRemoveRestores(t *testing.T) {
	p, err := domain.NewPath(aalstA, aalstB, domain.GeoPoint{Lat: 50.94, Lon: 3.99})
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	before := p.Points()
	beforeKm := p.DistanceKm()

	if _, err := p.Append(domain.GeoPoint{Lat: 50.95, Lon: 4.0}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	km, err := p.RemoveAt(p.Len() - 1)
	if err != nil {
		t.Fatalf("RemoveAt: %v", err)
	}
	if km != beforeKm {
		t.Errorf("distance after undo = %v, want exactly %v", km, beforeKm)
	}
	want, _ := domain.NewPath(before...)
	if !p.Equal(want) {
		t.Errorf("points after undo = %v, want %v", p.Points(), before)
	}
}

func TestPath_RemoveMiddleOfCollinear(t *testing.T) {
	mid := domain.GeoPoint{Lat: 50.9325, Lon: 3.98}
	end := domain.GeoPoint{Lat: 50.935, Lon: 3.98}
	p, err := domain.NewPath(aalstA, mid, end)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}

	km, err := p.RemoveAt(1)
	if err != nil {
		t.Fatalf("RemoveAt: %v", err)
	}
	direct := domain.DistanceMeters(aalstA, end) / 1000
	if km != direct {
		t.Errorf("distance after removing middle = %v, want %v", km, direct)
	}
}

func TestPath_IndexOutOfRange(t *testing.T) {
	p, _ := domain.NewPath(aalstA, aalstB)
	beforeKm := p.DistanceKm()

	tests := []struct {
		name string
		op   func() error
	}{
		{"insert negative", func() error { _, err := p.InsertAt(-1, aalstA); return err }},
		{"insert past end", func() error { _, err := p.InsertAt(3, aalstA); return err }},
		{"move at len", func() error { _, err := p.MoveAt(2, aalstA); return err }},
		{"move negative", func() error { _, err := p.MoveAt(-1, aalstA); return err }},
		{"remove at len", func() error { _, err := p.RemoveAt(2); return err }},
		{"at negative", func() error { _, err := p.At(-1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, domain.ErrIndexOutOfRange) {
				t.Errorf("expected ErrIndexOutOfRange, got %v", err)
			}
		})
	}

	if p.Len() != 2 || p.DistanceKm() != beforeKm {
		t.Errorf("failed operations changed the path: len=%d km=%v", p.Len(), p.DistanceKm())
	}
}

func TestPath_InsertAtEndsAndMove(t *testing.T) {
	p, _ := domain.NewPath(aalstA)
	if _, err := p.InsertAt(1, aalstB); err != nil {
		t.Fatalf("insert at len: %v", err)
	}
	first := domain.GeoPoint{Lat: 50.92, Lon: 3.97}
	if _, err := p.InsertAt(0, first); err != nil {
		t.Fatalf("insert at 0: %v", err)
	}
	got := p.Points()
	if got[0] != first || got[1] != aalstA || got[2] != aalstB {
		t.Fatalf("unexpected order: %v", got)
	}

	km, err := p.MoveAt(0, aalstA)
	if err != nil {
		t.Fatalf("MoveAt: %v", err)
	}
	if want := domain.PathDistanceKm([]domain.GeoPoint{aalstA, aalstA, aalstB}); km != want {
		t.Errorf("distance after move = %v, want %v", km, want)
	}
}

func TestPath_InvalidPointRejected(t *testing.T) {
	p, _ := domain.NewPath(aalstA)
	for _, pt := range []domain.GeoPoint{
		{Lat: 91, Lon: 0},
		{Lat: 0, Lon: -180.5},
		{Lat: math.NaN(), Lon: 0},
	} {
		if _, err := p.Append(pt); !errors.Is(err, domain.ErrInvalidPoint) {
			t.Errorf("Append(%v): expected ErrInvalidPoint, got %v", pt, err)
		}
	}
	if p.Len() != 1 {
		t.Errorf("invalid appends changed the path length to %d", p.Len())
	}

	if _, err := p.Replace([]domain.GeoPoint{aalstB, {Lat: -95}}); !errors.Is(err, domain.ErrInvalidPoint) {
		t.Errorf("Replace: expected ErrInvalidPoint, got %v", err)
	}
	if got, _ := p.At(0); got != aalstA || p.Len() != 1 {
		t.Errorf("failed Replace changed the path: %v", p.Points())
	}
}

func TestPath_ClearAndComplete(t *testing.T) {
	p, _ := domain.NewPath(aalstA, aalstB)
	if !p.Complete() {
		t.Error("two-point path should be complete")
	}
	if km := p.Clear(); km != 0 || p.Len() != 0 {
		t.Errorf("Clear left km=%v len=%d", km, p.Len())
	}
	if p.Complete() {
		t.Error("empty path should not be complete")
	}
}

func TestPath_PointsIsACopy(t *testing.T) {
	p, _ := domain.NewPath(aalstA, aalstB)
	pts := p.Points()
	pts[0] = domain.GeoPoint{}
	if got, _ := p.At(0); got != aalstA {
		t.Errorf("mutating Points() leaked into the path: %v", got)
	}

	c := p.Clone()
	_, _ = c.RemoveAt(0)
	if p.Len() != 2 {
		t.Errorf("mutating a clone changed the original")
	}
}

func TestPathDistance_NonNegativeForRandomPaths(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		n := r.Intn(6)
		pts := make([]domain.GeoPoint, n)
		for j := range pts {
			pts[j] = randomPoint(r)
		}
		p, err := domain.NewPath(pts...)
		if err != nil {
			t.Fatalf("NewPath: %v", err)
		}
		if p.DistanceKm() < 0 {
			t.Fatalf("negative distance %v", p.DistanceKm())
		}
		if n < 2 && p.DistanceKm() != 0 {
			t.Fatalf("path of %d points has distance %v", n, p.DistanceKm())
		}
	}
}
