package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 60 * time.Second
)

var ledgerUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LedgerFeed streams the caller's ledger events over a websocket. The client
// authenticates with ?token= since browsers cannot set headers on the handshake.
func (h *Handler) LedgerFeed(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		h.writeMessage(w, http.StatusServiceUnavailable, "Live updates are not available")
		return
	}
	userID := middleware.UserIDFromContext(r.Context())

	// subscribe before upgrading so failures can still be reported over HTTP
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	events, err := h.Events.Subscribe(ctx, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := ledgerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// reader: only pongs and close frames are expected
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				h.Logger.Debug("ledger feed write failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
