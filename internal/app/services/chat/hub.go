package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/remnanthub/platform/internal/app/domain/chat"
	"github.com/remnanthub/platform/internal/app/metrics"
	"github.com/remnanthub/platform/internal/app/system"
	"github.com/remnanthub/platform/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 32
)

// Event is the frame pushed to websocket subscribers.
type Event struct {
	Type    string       `json:"type"`
	Message chat.Message `json:"message"`
}

type subscriber struct {
	conn        *websocket.Conn
	communityID string
	userID      string
	send        chan []byte
	once        sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub fans stored messages out to websocket subscribers, one room per community.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*subscriber]struct{}
	upgrader websocket.Upgrader
	wg       sync.WaitGroup
	closed   bool
	log      *logger.Logger
}

var (
	_ Broadcaster    = (*Hub)(nil)
	_ system.Service = (*Hub)(nil)
)

// NewHub creates a hub. checkOrigin may be nil to accept same-origin requests only.
func NewHub(checkOrigin func(r *http.Request) bool, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewDefault("chat-hub")
	}
	return &Hub{
		rooms: make(map[string]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// Serve upgrades the request and streams the community's messages until the
// client disconnects or the hub is closed. Authorization happens before.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, communityID, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	sub := &subscriber{
		conn:        conn,
		communityID: communityID,
		userID:      userID,
		send:        make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		return conn.Close()
	}
	room, ok := h.rooms[communityID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[communityID] = room
	}
	room[sub] = struct{}{}
	h.wg.Add(2)
	h.mu.Unlock()
	metrics.ChatSubscriberConnected()

	h.log.WithField("community_id", communityID).
		WithField("user_id", userID).
		Debug("chat subscriber connected")

	go h.writeLoop(sub)
	go h.readLoop(sub)
	return nil
}

// Broadcast delivers msg to every subscriber of its community. Slow
// subscribers whose buffer is full are dropped.
func (h *Hub) Broadcast(msg chat.Message) {
	payload, err := json.Marshal(Event{Type: "message", Message: msg})
	if err != nil {
		h.log.WithError(err).Warn("chat event not encoded")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.rooms[msg.CommunityID] {
		select {
		case sub.send <- payload:
		default:
			h.removeLocked(sub)
			h.log.WithField("community_id", msg.CommunityID).
				WithField("user_id", sub.userID).
				Warn("dropping slow chat subscriber")
		}
	}
}

// Subscribers returns the number of live connections for a community.
func (h *Hub) Subscribers(communityID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[communityID])
}

func (h *Hub) Name() string { return "chat-hub" }

// Start is a no-op; connections are accepted as soon as the hub exists.
func (h *Hub) Start(context.Context) error { return nil }

// Stop closes the hub.
func (h *Hub) Stop(context.Context) error {
	h.Close()
	return nil
}

// Close disconnects every subscriber and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, room := range h.rooms {
		for sub := range room {
			h.removeLocked(sub)
		}
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hub) removeLocked(sub *subscriber) {
	room := h.rooms[sub.communityID]
	if _, ok := room[sub]; !ok {
		return
	}
	delete(room, sub)
	metrics.ChatSubscriberDisconnected()
	if len(room) == 0 {
		delete(h.rooms, sub.communityID)
	}
	sub.close()
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	h.removeLocked(sub)
	h.mu.Unlock()
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
		h.wg.Done()
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(sub)
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}

// readLoop discards client frames; it exists to process control frames and
// notice disconnects.
func (h *Hub) readLoop(sub *subscriber) {
	defer func() {
		h.remove(sub)
		h.wg.Done()
	}()

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}
