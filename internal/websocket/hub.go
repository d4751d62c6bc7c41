package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"watchfolio-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub routes reveal frames to a user's open connections. A user may have
// several tabs or devices; every one of them sees the same animation.
type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendRevealTick pushes one frame of the character reveal to the user.
func (h *Hub) SendRevealTick(userId uuid.UUID, sessionId, revealed string) {
	h.send(userId, "reveal_tick", map[string]interface{}{
		"session_id": sessionId,
		"revealed":   revealed,
	})
}

// SendRevealComplete tells the user's clients the reveal finished and hands
// them the full assistant reply.
func (h *Hub) SendRevealComplete(userId uuid.UUID, sessionId, fullText string) {
	h.send(userId, "reveal_complete", map[string]interface{}{
		"session_id": sessionId,
		"message":    fullText,
	})
}

func (h *Hub) send(userId uuid.UUID, frameType string, payload map[string]interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": frameType,
		"data": payload,
	})

	if h.rdb == nil {
		h.deliverLocal(userId, data)
		return
	}

	// Route through Redis so every instance, this one included, delivers to
	// the user's connections exactly once.
	envelope, _ := json.Marshal(map[string]interface{}{
		"target_user_id": userId.String(),
		"message":        data,
	})
	h.rdb.Publish(context.Background(), "cluster_events", envelope)
}

func (h *Hub) deliverLocal(userId uuid.UUID, data []byte) {
	h.mu.RLock()
	clients, ok := h.clients[userId]
	h.mu.RUnlock()
	if !ok {
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// The unregister handler owns closing Send. Closing here as well
			// would double-close once the handler finds the client.
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": userId})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to "cluster_events". When a frame arrives,
	// deliver it if the target user has a local connection.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}

		h.deliverLocal(uid, payload.Message)
	}
}
