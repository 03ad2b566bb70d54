package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/theblitlabs/parity-stake/internal/config"
	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/internal/telemetry"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// InputMessage is sent by the page whenever the amount field changes.
type InputMessage struct {
	Amount string `json:"amount"`
}

// BlockFeed delivers new block numbers.
type BlockFeed interface {
	BlockTracker
	Subscribe() (<-chan uint64, func())
}

type WebSocketHandler struct {
	staking  *StakingHandler
	feed     BlockFeed
	cfg      config.WebsocketConfig
	upgrader websocket.Upgrader

	stop     chan struct{}
	stopOnce sync.Once
}

func NewWebSocketHandler(staking *StakingHandler, feed BlockFeed, cfg config.WebsocketConfig) *WebSocketHandler {
	return &WebSocketHandler{
		staking: staking,
		feed:    feed,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		stop: make(chan struct{}),
	}
}

// Shutdown ends every open connection. Hijacked connections are not closed by
// http.Server.Shutdown.
func (h *WebSocketHandler) Shutdown() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// ServeHTTP pushes a fresh dashboard view on connect, on every new block and
// on every amount change sent by the client.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("websocket")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Upgrade failed")
		return
	}
	defer conn.Close()

	telemetry.RecordWebsocketConnection(1)
	defer telemetry.RecordWebsocketConnection(-1)

	var token string
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		token = cookie.Value
	}

	blocks, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	inputs := make(chan string, 1)
	done := make(chan struct{})
	go h.readInputs(conn, inputs, done)

	pingPeriod := h.cfg.PongWait * 9 / 10
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	amount := ""
	push := func(block uint64) bool {
		sess := h.resolve(token)

		ctx, cancel := h.callContext(r.Context())
		v := h.staking.service.View(ctx, sess, amount)
		cancel()

		if block == 0 {
			block = h.feed.Latest()
		}
		v.BlockNumber = block

		h.setWriteDeadline(conn)
		if err := conn.WriteJSON(WSMessage{Type: "dashboard", Payload: v}); err != nil {
			log.Debug().Err(err).Msg("Dashboard push failed")
			return false
		}
		return true
	}

	if !push(0) {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-h.stop:
			h.setWriteDeadline(conn)
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-r.Context().Done():
			return
		case a := <-inputs:
			amount = a
			if !push(0) {
				return
			}
		case n := <-blocks:
			if !push(n) {
				return
			}
		case <-ping.C:
			h.setWriteDeadline(conn)
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) readInputs(conn *websocket.Conn, inputs chan string, done chan<- struct{}) {
	defer close(done)
	log := logger.WithComponent("websocket")

	if h.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageSize)
	}
	if h.cfg.PongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
		})
	}

	for {
		var msg InputMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Connection closed")
			}
			return
		}

		// keep only the latest input
		select {
		case <-inputs:
		default:
		}
		inputs <- msg.Amount
	}
}

func (h *WebSocketHandler) resolve(token string) session.Session {
	if token == "" {
		return session.Session{}
	}
	sess, err := h.staking.sessions.Resolve(token)
	if err != nil {
		return session.Session{}
	}
	return sess
}

func (h *WebSocketHandler) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.staking.rpcTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, h.staking.rpcTimeout)
}

func (h *WebSocketHandler) setWriteDeadline(conn *websocket.Conn) {
	if h.cfg.WriteWait > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
	}
}
