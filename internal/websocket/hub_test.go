package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchfolio-be/internal/pkg/logger"
)

func TestStalledClientIsDroppedWithoutDoubleClose(t *testing.T) {
	hub := NewHub(nil, logger.Nop())
	go hub.Run()

	userID := uuid.New()
	stalled := &Client{Hub: hub, UserID: userID, Send: make(chan []byte)}
	hub.register <- stalled
	waitForClients(t, hub, userID, 1)

	// Nobody drains Send, so the frame hits the slow-client branch and the
	// client is queued for unregistration. Only the hub loop closes Send.
	hub.SendRevealTick(userID, "session_1", "H")
	waitForClients(t, hub, userID, 0)

	select {
	case _, ok := <-stalled.Send:
		assert.False(t, ok, "Send must be closed by the hub")
	case <-time.After(time.Second):
		t.Fatal("Send was never closed")
	}

	// Frames for a user with no connections are dropped silently.
	hub.SendRevealTick(userID, "session_1", "He")

	// The read pump's deferred unregister can arrive after the hub already
	// dropped the connection. It must not close Send a second time.
	hub.unregister <- stalled

	// The hub loop is still alive and serves the next connection.
	fresh := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	hub.register <- fresh
	waitForClients(t, hub, userID, 1)

	hub.SendRevealComplete(userID, "session_1", "Hello")
	select {
	case data := <-fresh.Send:
		var frame struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, "reveal_complete", frame.Type)
		assert.Equal(t, "Hello", frame.Data["message"])
	case <-time.After(time.Second):
		t.Fatal("frame was never delivered")
	}
}

func waitForClients(t *testing.T, h *Hub, userID uuid.UUID, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		n := len(h.clients[userID])
		h.mu.RUnlock()
		if n == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("expected %d connections for user, timed out", want)
}
