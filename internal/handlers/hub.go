package handlers

import (
	"solitaire-go/internal/models"
	ws "solitaire-go/pkg/websocket"
)

// hubProvider is set by main at startup so HTTP handlers can broadcast realtime updates.
var hubProvider func() (*ws.Hub, bool)

func SetHubProvider(p func() (*ws.Hub, bool)) {
	hubProvider = p
}

type sessionResult struct {
	SessionID string      `json:"session_id"`
	Mode      models.Mode `json:"mode"`
	Seq       int64       `json:"seq"`
	Output    string      `json:"output"`
}

func sessionRoom(publicID string) string {
	return "session:" + publicID
}

// broadcastSessionResult tells clients watching a session about a new
// message. Best-effort: without a hub nothing is sent.
func broadcastSessionResult(r sessionResult) {
	if hubProvider == nil {
		return
	}
	hub, ok := hubProvider()
	if !ok {
		return
	}
	hub.Broadcast(sessionRoom(r.SessionID), "session_result", r)
}
