package handler

import (
	"encoding/json"
	"net/http"
	"scanstation/internal/dto"
	"scanstation/internal/logger"
	"scanstation/internal/service/websocket"
	"scanstation/internal/session"
	"time"

	gorilla "github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler registers a viewer in the hub. The viewer first
// receives the current session state, then every broadcast.
func ViewWebsocketHandler(hub *websocket.HubService, ctrl SessionController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		if err := sendInitialState(connection, ctrl.State()); err != nil {
			logger.Warning("Failed to send initial state: %v", err)
			connection.Close()
			return
		}

		if !hub.Register(connection) {
			connection.Close()
			return
		}
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}

// sendInitialState runs before Register, so it is the only writer.
func sendInitialState(conn *gorilla.Conn, st session.State) error {
	msg, err := json.Marshal(dto.ViewerMessage{
		Type:      "state",
		Payload:   st,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(gorilla.TextMessage, msg)
}
