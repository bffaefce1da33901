// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sudoku-arena/arena/internal/arena"
)

// ArenaWSHandler upgrades the HTTP connection to WebSocket and runs the
// relay protocol for a single client: a fresh connection id is assigned, the
// connection is registered, and inbound events are dispatched to the room
// lifecycle manager and relay dispatcher until the connection closes. The
// teardown path always runs disconnect handling, so a dropped client is
// removed from whatever room it occupied.
func ArenaWSHandler(logger *logrus.Logger, reg *ConnRegistry, mgr *arena.Manager, disp *arena.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"arena"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "arena" {
			c.Close(BadSubprotocolError, "client must speak the arena subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &ClientConn{
			ID:      uuid.New(),
			Cancel:  cancel,
			OutChan: make(chan arena.Event, 16),
		}
		reg.Register(conn)
		logger.Infof("Client %s connected from %s", conn.ID, r.RemoteAddr)

		go writePump(ctx, c, conn, logger)

		// Blocks until the connection closes or errors.
		readPump(ctx, c, conn, mgr, disp, logger)

		// ---- Cleanup after readPump exits ----
		mgr.HandleDisconnect(conn.ID)
		reg.Unregister(conn.ID)
		logger.Infof("Client %s disconnected", conn.ID)
	}
}

// readPump reads frames from the websocket, decodes each into the inbound
// envelope, and routes it by type. Malformed or unknown messages get an
// error event back; they never close the connection.
func readPump(ctx context.Context, c *websocket.Conn, conn *ClientConn, mgr *arena.Manager, disp *arena.Dispatcher, logger *logrus.Logger) {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for client %s.", conn.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				// Shutdown path, nothing to report.
			} else {
				logger.Warnf("Read error for client %s: %v (CloseStatus: %d)", conn.ID, err, closeStatus)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from client %s. Ignoring.", typ, conn.ID)
			continue
		}

		var env arena.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Warnf("Invalid json from client %s: %v", conn.ID, err)
			conn.Write(arena.ErrorEvent("Invalid JSON format"))
			continue
		}

		switch env.Type {
		case arena.ActionCreateRoom:
			mgr.CreateRoom(conn.ID, env.Puzzle, env.InitialPuzzle)
		case arena.ActionJoinRoom:
			mgr.JoinRoom(conn.ID, env.RoomID)
		case arena.ActionPlayerMove:
			disp.RelayMove(env.RoomID, conn.ID, env.PuzzleState)
		case arena.ActionGameOver:
			disp.RelayGameOver(env.RoomID, conn.ID)
		case arena.ActionLeaveRoom:
			mgr.LeaveRoom(env.RoomID, conn.ID)
		default:
			logger.Warnf("Unknown action '%s' from client %s", env.Type, conn.ID)
			conn.Write(arena.ErrorEvent(fmt.Sprintf("Unknown action type: %s", env.Type)))
		}
	}
}

// writePump drains the connection's OutChan onto the websocket and sends
// periodic pings. A failed write or ping stops the pump; the read loop then
// observes the closure and runs the disconnect path.
func writePump(ctx context.Context, c *websocket.Conn, conn *ClientConn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	defer func() {
		_ = c.Close(websocket.StatusGoingAway, "Write pump stopping")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing event for client %s: %v", conn.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for client %s: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Failed to send ping to client %s: %v. Assuming disconnect.", conn.ID, err)
				return
			}
		}
	}
}
