package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/wandelroutes/internal/adapters/nats"
	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/ports"
	"github.com/samirrijal/wandelroutes/internal/core/usecases"
	"github.com/samirrijal/wandelroutes/internal/core/viewsync"
	"github.com/samirrijal/wandelroutes/internal/pkg/logging"
	"github.com/samirrijal/wandelroutes/internal/pkg/metrics"
)

const (
	wsPingInterval = 30 * time.Second
	wsSaveTimeout  = 15 * time.Second
)

// Editor commands that are not map events.
const (
	cmdLoad   = "load"
	cmdSave   = "save"
	cmdResize = "resize"
)

// editorMessage is sent by the editor client. Map events use the domain.MapEvent
// fields; "load" names a route, "save" carries the route metadata and
// "resize" reports the map size in pixels.
type editorMessage struct {
	domain.MapEvent
	RouteID string             `json:"route_id,omitempty"`
	Route   *domain.RouteDraft `json:"route,omitempty"`
	Width   int                `json:"width,omitempty"`
	Height  int                `json:"height,omitempty"`
}

// editorReply is sent to the editor client.
type editorReply struct {
	Type     string               `json:"type"` // snapshot | saved | error
	Snapshot *domain.PathSnapshot `json:"snapshot,omitempty"`
	Route    *domain.Route        `json:"route,omitempty"`
	Code     string               `json:"code,omitempty"`
	Message  string               `json:"message,omitempty"`
}

// wsWriter serialises writes to one connection.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) json(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.raw(websocket.TextMessage, data)
}

func (w *wsWriter) raw(kind int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(kind, data)
}

func (w *wsWriter) fail(err error) {
	_, code := classify(err)
	_ = w.json(editorReply{Type: "error", Code: code, Message: err.Error()})
}

// keepAlive pings until done is closed or a write fails.
func (w *wsWriter) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.raw(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// EditorSocketHandler runs one PathEditor per connection. Every change to the
// path is pushed back as a snapshot; saves run in the background so the client
// can keep editing.
func EditorSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		session, _ := c.Locals(sessionLocal).(domain.Session)
		sessionID := uuid.NewString()
		log := slog.Default().With("editor_session", sessionID, "operator", session.CanEdit())
		ctx, cancel := context.WithCancel(logging.WithLogger(context.Background(), log))
		defer cancel()

		metrics.ActiveEditorSessions.Inc()
		defer metrics.ActiveEditorSessions.Dec()
		log.Info("editor connected", "remote", c.RemoteAddr().String())

		w := &wsWriter{conn: c}
		editor := usecases.NewPathEditor(deps.Routes, session, ports.PathObserverFunc(func(s domain.PathSnapshot) {
			if err := w.json(editorReply{Type: "snapshot", Snapshot: &s}); err != nil {
				log.Debug("snapshot not sent", "error", err)
			}
		}))
		if deps.MapSize.Width > 0 && deps.MapSize.Height > 0 {
			editor.SetMapSize(deps.MapSize)
		}

		initial := editor.Snapshot()
		_ = w.json(editorReply{Type: "snapshot", Snapshot: &initial})

		done := make(chan struct{})
		go w.keepAlive(done)

		var saves sync.WaitGroup
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				break
			}

			var msg editorMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = w.json(editorReply{Type: "error", Code: "bad_request", Message: "invalid JSON"})
				continue
			}

			switch string(msg.Kind) {
			case cmdLoad:
				if _, err := editor.Load(ctx, msg.RouteID); err != nil {
					w.fail(err)
				}
			case cmdResize:
				editor.SetMapSize(viewsync.MapSize{Width: msg.Width, Height: msg.Height})
				snap := editor.Snapshot()
				_ = w.json(editorReply{Type: "snapshot", Snapshot: &snap})
			case cmdSave:
				var draft domain.RouteDraft
				if msg.Route != nil {
					draft = *msg.Route
				}
				saves.Add(1)
				go func() {
					defer saves.Done()
					saveCtx, cancel := context.WithTimeout(ctx, wsSaveTimeout)
					defer cancel()
					route, err := editor.Save(saveCtx, draft)
					if err != nil {
						w.fail(err)
						return
					}
					_ = w.json(editorReply{Type: "saved", Route: route})
				}()
			default:
				if _, err := editor.Apply(msg.MapEvent); err != nil {
					w.fail(err)
				}
			}
		}

		close(done)
		saves.Wait()
		log.Info("editor disconnected", "route_id", editor.RouteID())
	}
}

// RouteViewerHandler relays saved/deleted events of one route to read-only viewers.
func RouteViewerHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		routeID := c.Params("id")
		w := &wsWriter{conn: c}
		if nc == nil {
			_ = w.json(editorReply{Type: "error", Code: "unavailable", Message: "live updates are not available"})
			return
		}

		metrics.ActiveViewers.Inc()
		defer metrics.ActiveViewers.Dec()

		sub, err := nc.Subscribe(natsadapter.RouteWatchSubject(routeID), func(msg *nats.Msg) {
			_ = w.raw(websocket.TextMessage, msg.Data)
		})
		if err != nil {
			slog.Warn("viewer subscribe failed", "route_id", routeID, "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		done := make(chan struct{})
		go w.keepAlive(done)

		// Viewers never send anything meaningful; reading detects the close.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		close(done)
	}
}
