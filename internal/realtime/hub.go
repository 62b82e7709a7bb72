package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

// Hub fans out events to connected clients. Chat messages target the two
// room participants directly; broadcasts target audience tags. The hub
// goroutine is the only writer to and closer of a client's send channel.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan *Event
	replies    chan reply
}

// reply is a best-effort message for a single connection, typically an
// error echo from that connection's read loop.
type reply struct {
	client  *Client
	payload []byte
}

type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	userID      int64
	accountType string
	isAdmin     bool
	send        chan []byte
}

type sender interface {
	SendMessage(
		ctx context.Context,
		actorID int64,
		roomID int64,
		content string,
	) (*services.ChatDelivery, error)
}

// Event is a single delivery unit. Recipients wins when set; otherwise
// Audiences selects clients by account type, with "all" matching everyone.
// Admins receive every audience-targeted event.
type Event struct {
	Recipients []int64
	Audiences  []string
	Payload    []byte
}

type wireMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"room_id,omitempty"`
	SenderID    string `json:"sender_id,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	BroadcastID string `json:"broadcast_id,omitempty"`
	Title       string `json:"title,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *Event, 64),
		replies:    make(chan reply, 16),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, accountType string, isAdmin bool) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		userID:      userID,
		accountType: accountType,
		isAdmin:     isAdmin,
		send:        make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				h.evict(set, client)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case event := <-h.events:
			h.deliver(event)
		case r := <-h.replies:
			h.sendToClient(r.client, r.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishChat notifies both room participants about a new message.
func (h *Hub) PublishChat(delivery *services.ChatDelivery) {
	payload, err := json.Marshal(wireMessage{
		Type:      "message",
		RoomID:    strconv.FormatInt(delivery.Message.RoomID, 10),
		SenderID:  strconv.FormatInt(delivery.Message.SenderID, 10),
		Kind:      delivery.Message.Kind,
		Content:   delivery.Message.Content,
		Timestamp: services.FormatChatTimestamp(delivery.Message.CreatedAt),
	})
	if err != nil {
		log.Printf("realtime encode chat message: %v", err)
		return
	}

	h.events <- &Event{
		Recipients: []int64{delivery.Message.SenderID, delivery.RecipientID},
		Payload:    payload,
	}
}

// PublishBroadcast pushes an announcement to its audiences.
func (h *Hub) PublishBroadcast(broadcast *models.Broadcast) {
	payload, err := json.Marshal(wireMessage{
		Type:        "broadcast",
		BroadcastID: strconv.FormatInt(broadcast.ID, 10),
		Title:       broadcast.Title,
		Content:     broadcast.Content,
		Timestamp:   services.FormatChatTimestamp(broadcast.CreatedAt),
	})
	if err != nil {
		log.Printf("realtime encode broadcast: %v", err)
		return
	}

	h.events <- &Event{
		Audiences: broadcast.Recipients,
		Payload:   payload,
	}
}

func (h *Hub) deliver(event *Event) {
	if len(event.Recipients) > 0 {
		seen := make(map[int64]struct{}, len(event.Recipients))
		for _, userID := range event.Recipients {
			if _, dup := seen[userID]; dup {
				continue
			}
			seen[userID] = struct{}{}
			h.sendToUser(userID, event.Payload)
		}
		return
	}

	for userID, set := range h.clients {
		for client := range set {
			if !client.matchesAudience(event.Audiences) {
				continue
			}
			select {
			case client.send <- event.Payload:
			default:
				h.evict(set, client)
			}
		}
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
}

// evict drops a client that left or cannot keep up. Closing send ends its
// WritePump; the connection close then ends its ReadPump.
func (h *Hub) evict(set map[*Client]struct{}, client *Client) {
	delete(set, client)
	close(client.send)
}

func (c *Client) matchesAudience(audiences []string) bool {
	if c.isAdmin {
		return true
	}
	for _, audience := range audiences {
		if audience == models.AudienceAll || audience == c.accountType {
			return true
		}
	}
	return false
}

func (h *Hub) sendToUser(userID int64, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			h.evict(set, client)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// sendToClient delivers to one connection, skipping clients that were
// already evicted or unregistered.
func (h *Hub) sendToClient(client *Client, payload []byte) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; !exists {
		return
	}

	select {
	case client.send <- payload:
	default:
		h.evict(set, client)
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (c *Client) ReadPump(service sender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type    string `json:"type"`
			RoomID  string `json:"room_id"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			writeError(c, "unsupported message type")
			continue
		}

		roomID, err := strconv.ParseInt(incoming.RoomID, 10, 64)
		if err != nil || roomID <= 0 {
			writeError(c, "invalid room id")
			continue
		}

		delivery, err := service.SendMessage(context.Background(), c.userID, roomID, incoming.Content)
		if err != nil {
			writeError(c, "failed to send message")
			continue
		}

		c.hub.PublishChat(delivery)
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// writeError queues an error echo for the client. Read loops must not touch
// client.send themselves; the hub goroutine owns it and may have closed it
// during eviction, so the reply goes through the hub and is dropped when the
// reply queue is full.
func writeError(client *Client, message string) {
	payload, err := json.Marshal(wireMessage{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	select {
	case client.hub.replies <- reply{client: client, payload: payload}:
	default:
	}
}
