package ports

import (
	"context"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

// RouteRepository persists walking routes.
// Implementations return domain.ErrNotFound for unknown IDs and wrap every
// other backend failure in domain.ErrPersistence.
type RouteRepository interface {
	// Create stores a new route and returns its generated ID.
	Create(ctx context.Context, route *domain.Route) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	List(ctx context.Context) ([]domain.Route, error)
	// Update overwrites every stored field of route.ID.
	Update(ctx context.Context, route *domain.Route) error
	Delete(ctx context.Context, id string) error
}
