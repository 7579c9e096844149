package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"roster/internal/adapters/http/middleware"
	"roster/internal/application/syncstore"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames; anything larger is a protocol error.
	maxMessageSize = 512
)

// liveMessage is one frame pushed to a live client.
type liveMessage struct {
	Type string   `json:"type"`
	View viewJSON `json:"view"`
}

// checkOrigin admits same-host pages and the configured trusted origins.
func (s *server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.ContainsFunc(s.deps.TrustedOrigins, func(o string) bool {
		return strings.EqualFold(o, u.Host) || strings.EqualFold(o, origin)
	})
}

// handleLive streams the caller's view over a websocket: one frame on
// connect and one after every change, until either side goes away.
func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("live_upgrade_failed", "uid", id.UID, "error", err.Error())
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go readPump(conn, cancel)

	store := s.newSession()
	defer store.Detach()
	// Attach errors are reported through the view's status.
	_, _ = store.Attach(ctx, id)

	slog.Info("live_event", "event", "connected", "uid", id.UID)
	s.writePump(ctx, conn, store)
	slog.Info("live_event", "event", "disconnected", "uid", id.UID)
}

// readPump drains control frames and cancels the stream when the peer
// closes or stops answering pings.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("live_read_failed", "error", err.Error())
			}
			return
		}
	}
}

// writePump sends the current view, then waits for the next change.
// INVARIANT: Changed is read before View so no change between them is lost
func (s *server) writePump(ctx context.Context, conn *websocket.Conn, store *syncstore.Store) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		changed := store.Changed()
		msg := liveMessage{Type: "view", View: s.toView(store.View())}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			case <-changed:
				break wait
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
