package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// DefaultRoom is where clients land before joining a session room.
const DefaultRoom = "cipher:global"

// Hub tracks connected clients by room and fans out broadcasts. All room
// state is owned by the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	join       chan joinReq
	broadcast  chan Broadcast
	stop       chan struct{}
	stopOnce   sync.Once

	rooms map[string]map[*Client]bool
}

type joinReq struct {
	Client *Client
	Room   string
}

type Broadcast struct {
	Room    string
	Type    string
	Payload any
	// Except, if set, is left out of the fan-out.
	Except *Client
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinReq),
		broadcast:  make(chan Broadcast, 256),
		stop:       make(chan struct{}),
		rooms:      map[string]map[*Client]bool{},
	}
}

// Envelope encodes the wire format shared by direct sends and broadcasts.
func Envelope(typ string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":      typ,
		"payload":   payload,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Run processes hub events until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			for _, clients := range h.rooms {
				for c := range clients {
					c.closeSend()
				}
			}
			h.rooms = map[string]map[*Client]bool{}
			return
		case c := <-h.register:
			h.moveClientToRoom(c, c.Room)
		case c := <-h.unregister:
			h.removeClient(c)
		case jr := <-h.join:
			h.moveClientToRoom(jr.Client, jr.Room)
		case b := <-h.broadcast:
			h.broadcastToRoom(b)
		}
	}
}

// Stop ends Run. After Stop, Register/Unregister/Join/Broadcast are no-ops.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stop:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stop:
	}
}

func (h *Hub) Join(c *Client, room string) {
	select {
	case h.join <- joinReq{Client: c, Room: room}:
	case <-h.stop:
	}
}

func (h *Hub) Broadcast(room, typ string, payload any) {
	h.BroadcastExcept(room, typ, payload, nil)
}

// BroadcastExcept is Broadcast skipping one client, typically the one that
// already got the payload as a direct reply.
func (h *Hub) BroadcastExcept(room, typ string, payload any, except *Client) {
	select {
	case h.broadcast <- Broadcast{Room: room, Type: typ, Payload: payload, Except: except}:
	case <-h.stop:
	}
}

func (h *Hub) leaveRoom(c *Client) {
	if clients := h.rooms[c.Room]; clients != nil {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, c.Room)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if c == nil {
		return
	}
	h.leaveRoom(c)
	c.closeSend()
}

func (h *Hub) moveClientToRoom(c *Client, room string) {
	if c == nil {
		return
	}
	if room == "" {
		room = DefaultRoom
	}
	h.leaveRoom(c)
	c.Room = room
	if h.rooms[room] == nil {
		h.rooms[room] = map[*Client]bool{}
	}
	h.rooms[room][c] = true
}

func (h *Hub) broadcastToRoom(b Broadcast) {
	clients := h.rooms[b.Room]
	if len(clients) == 0 {
		return
	}
	data, err := Envelope(b.Type, b.Payload)
	if err != nil {
		log.Printf("ws broadcast marshal error: room=%s type=%s err=%v", b.Room, b.Type, err)
		return
	}
	for c := range clients {
		if c == b.Except {
			continue
		}
		if !c.trySend(data) {
			// Backpressure / dead client.
			h.removeClient(c)
		}
	}
}
