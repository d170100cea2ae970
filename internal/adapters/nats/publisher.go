package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

const (
	// RouteEventsStream holds every route change for a day.
	RouteEventsStream = "ROUTE_EVENTS"
	routeSubjectRoot  = "routes"
)

// RouteSubject is the subject a route event is published on: routes.<kind>.<id>.
func RouteSubject(kind domain.RouteEventKind, routeID string) string {
	return routeSubjectRoot + "." + string(kind) + "." + routeID
}

// RouteWatchSubject matches every event about one route.
func RouteWatchSubject(routeID string) string {
	return routeSubjectRoot + ".*." + routeID
}

// AllRoutesSubject matches every route event.
const AllRoutesSubject = routeSubjectRoot + ".>"

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := nats.StreamConfig{
		Name:      RouteEventsStream,
		Subjects:  []string{AllRoutesSubject},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishRouteEvent publishes ev on its route subject.
func (p *Publisher) PublishRouteEvent(ctx context.Context, ev *domain.RouteEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(RouteSubject(ev.Kind, ev.RouteID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for readiness checks and relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
