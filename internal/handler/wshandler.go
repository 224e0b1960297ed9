package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/svc"
	"github.com/poorehouse/twotruths/internal/types"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. The game socket is
	// broadcast-only, so anything beyond a close frame is noise.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The game is served open, same as the SSE endpoint.
		return true
	},
}

// Websocket mirror of the SSE stream, for clients behind proxies that
// mishandle long-lived HTTP responses.
func GameSocketHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Errorf("ws: upgrade failed: %v", err)
			return
		}

		id, events := svcCtx.Hub.Subscribe()
		logging.Infof("ws: client %d connected", id)

		svcCtx.Scheduler.TryRequest()

		connected, _ := json.Marshal(types.Event{Type: "connected", Message: "Connection established"})
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, connected); err != nil {
			svcCtx.Hub.Unsubscribe(id)
			conn.Close()
			return
		}

		done := make(chan struct{})
		go readPump(conn, done)
		writePump(conn, events, done)

		svcCtx.Hub.Unsubscribe(id)
		conn.Close()
		logging.Infof("ws: client %d disconnected", id)
	}
}

// readPump discards inbound frames. Reading keeps pong handling alive
// and notices disconnects.
func readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Errorf("ws: read error: %v", err)
			}
			return
		}
	}
}

// writePump relays hub frames and pings until the connection dies.
func writePump(conn *websocket.Conn, events <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, open := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
