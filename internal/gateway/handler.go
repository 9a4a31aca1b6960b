package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/kelvari/groupsync/internal/group"
	"github.com/kelvari/groupsync/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, replace with proper origin checking
	},
}

// Handler owns the WebSocket endpoint and ties connections to the runner.
type Handler struct {
	hub       *Hub
	runner    *group.Runner
	log       *logger.Logger
	jwtSecret string
}

// NewHandler creates the gateway handler.
func NewHandler(hub *Hub, runner *group.Runner, log *logger.Logger, jwtSecret string) *Handler {
	return &Handler{
		hub:       hub,
		runner:    runner,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

// Routes builds the HTTP router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", h.HandleWebSocket)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

// HandleWebSocket authenticates the connection ticket, upgrades the
// connection and registers the character with both group engines.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tokenStr == "" {
		tokenStr = r.URL.Query().Get("ticket")
	}
	if tokenStr == "" {
		http.Error(w, "Missing connection ticket", http.StatusUnauthorized)
		return
	}

	identity, err := ParseTicket(tokenStr, h.jwtSecret)
	if err != nil {
		http.Error(w, "Invalid connection ticket", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("upgrade connection", "error", err)
		return
	}

	client := &Client{
		handler:     h,
		conn:        conn,
		send:        make(chan []byte, 256),
		characterID: identity.CharacterID,
		scene:       identity.Scene,
	}

	// A reconnect displaces the previous connection for this character; the
	// engines see it as a disconnect followed by a fresh connect.
	displaced := h.hub.register(client)
	h.runner.Do(func(ctx context.Context) {
		if displaced != nil {
			h.eachEngine(func(e *group.Engine) { e.HandleDisconnect(ctx, client.characterID) })
		}
		h.eachEngine(func(e *group.Engine) {
			if err := e.HandleConnect(ctx, client.characterID, client.scene); err != nil {
				h.log.Error("connect character", "kind", e.Kind().String(), "character_id", client.characterID, "error", err)
			}
		})
	})
	h.log.Info("character connected", "character_id", client.characterID, "scene", client.scene)

	go client.writePump()
	go client.readPump()
}

// dropClient is called when a connection's read loop ends. Only the current
// connection for the character triggers engine disconnect handling; a
// displaced connection was already handled during the reconnect.
func (h *Handler) dropClient(c *Client) {
	if !h.hub.unregister(c) {
		return
	}
	h.runner.Do(func(ctx context.Context) {
		h.eachEngine(func(e *group.Engine) { e.HandleDisconnect(ctx, c.characterID) })
	})
	h.log.Info("character disconnected", "character_id", c.characterID)
}

// dispatch routes one inbound request onto the runner loop.
func (h *Handler) dispatch(c *Client, req Request) {
	kind, err := group.ParseKind(req.Kind)
	if err != nil {
		h.log.Debug("bad request kind", "character_id", c.characterID, "kind", req.Kind)
		return
	}

	h.runner.Do(func(ctx context.Context) {
		e := h.runner.Engine(kind)
		if e == nil {
			return
		}
		switch req.Type {
		case "create":
			e.CreateGroup(ctx, c.characterID, req.Name)
		case "invite":
			e.Invite(ctx, c.characterID, req.TargetID)
		case "accept":
			e.AcceptInvite(ctx, c.characterID)
		case "decline":
			e.DeclineInvite(c.characterID)
		case "leave":
			e.Leave(ctx, c.characterID)
		case "kick":
			e.Kick(ctx, c.characterID, req.MemberID)
		case "set_rank":
			rank, err := group.ParseRank(req.Rank)
			if err != nil {
				return
			}
			e.ChangeRank(ctx, c.characterID, req.MemberID, rank)
		default:
			h.log.Debug("unknown request type", "character_id", c.characterID, "type", req.Type)
		}
	})
}

func (h *Handler) eachEngine(fn func(*group.Engine)) {
	for _, kind := range []group.Kind{group.KindParty, group.KindGuild} {
		if e := h.runner.Engine(kind); e != nil {
			fn(e)
		}
	}
}
