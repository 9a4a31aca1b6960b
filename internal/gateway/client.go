package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed
	maxMessageSize = 512
)

// Request is an inbound client frame.
type Request struct {
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Name     string `json:"name,omitempty"`
	TargetID int64  `json:"target_id,omitempty"`
	MemberID int64  `json:"member_id,omitempty"`
	Rank     string `json:"rank,omitempty"`
}

// Client is one character's WebSocket connection.
type Client struct {
	handler *Handler
	conn    *websocket.Conn
	send    chan []byte

	characterID int64
	scene       string

	// dropped marks a stalled client whose send channel was closed while it
	// is still registered. Guarded by the hub's mutex.
	dropped bool

	closeOnce sync.Once
}

// shutdown closes the send channel, which makes writePump send a close frame
// and tear the connection down. Safe to call more than once.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump pumps requests from the connection to the runner loop.
func (c *Client) readPump() {
	defer func() {
		c.handler.dropClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.handler.log.Debug("read error", "character_id", c.characterID, "error", err)
			}
			break
		}

		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		c.handler.dispatch(c, req)
	}
}

// writePump pumps outbound messages from the hub to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
