package gateway

import (
	"encoding/json"
	"sync"

	"github.com/kelvari/groupsync/internal/group"
	"github.com/kelvari/groupsync/internal/logger"
)

// envelope is the outbound wire frame.
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active client connections, at most one per
// character. It implements group.Messenger.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*Client
	log     *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]*Client),
		log:     log,
	}
}

// register stores the client as the character's current connection and
// returns the connection it displaced, if any. The displaced connection is
// shut down here, while it leaves the map: a send channel is only ever closed
// once its client is unreachable through the map, so deliveries never race a
// close.
func (h *Hub) register(c *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	displaced := h.clients[c.characterID]
	h.clients[c.characterID] = c
	if displaced != nil {
		displaced.shutdown()
	}
	return displaced
}

// unregister removes the client if it is still the character's current
// connection, shutting it down in the same step. It reports whether it was.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.characterID] != c {
		return false
	}
	delete(h.clients, c.characterID)
	c.shutdown()
	return true
}

// DeliverToCharacter sends a message to the character's connection. An
// offline character is a no-op; a client whose send buffer is full is
// dropped rather than allowed to stall the caller.
func (h *Hub) DeliverToCharacter(characterID int64, msg group.Message) {
	payload, err := json.Marshal(envelope{Type: msg.MessageName(), Data: msg})
	if err != nil {
		h.log.Error("marshal outbound message", "type", msg.MessageName(), "error", err)
		return
	}

	// The send happens under the read lock. Closes only happen under the
	// write lock, on clients deliveries can no longer reach (unmapped or
	// marked dropped), so this channel is open.
	h.mu.RLock()
	c, ok := h.clients[characterID]
	dropped := ok && c.dropped
	if ok && !dropped {
		select {
		case c.send <- payload:
			h.mu.RUnlock()
			return
		default:
		}
	}
	h.mu.RUnlock()
	if !ok || dropped {
		return
	}

	// The client stays registered until its read loop winds down, so the
	// disconnect still reaches the engines through the usual path.
	h.log.Warn("send buffer full, dropping connection", "character_id", characterID)
	h.mu.Lock()
	if h.clients[characterID] == c && !c.dropped {
		c.dropped = true
		c.shutdown()
	}
	h.mu.Unlock()
}
