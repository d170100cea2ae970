package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wandelroutes/internal/adapters/postgres"
	"github.com/samirrijal/wandelroutes/internal/adapters/valkey"
	"github.com/samirrijal/wandelroutes/internal/core/usecases"
	"github.com/samirrijal/wandelroutes/internal/core/viewsync"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes *usecases.RouteService

	// OperatorToken grants edit sessions. Empty means every client is read-only.
	OperatorToken string
	// MapSize is the default map the editor fits viewports to.
	MapSize viewsync.MapSize

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
