package ports

import (
	"context"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRouteEvent(ctx context.Context, event *domain.RouteEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeRouteEvents(ctx context.Context, handler func(ctx context.Context, event *domain.RouteEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// PathObserver is told about every change to an edited path.
type PathObserver interface {
	OnPathChanged(snapshot domain.PathSnapshot)
}

// PathObserverFunc adapts a function to PathObserver.
type PathObserverFunc func(snapshot domain.PathSnapshot)

func (f PathObserverFunc) OnPathChanged(snapshot domain.PathSnapshot) { f(snapshot) }
