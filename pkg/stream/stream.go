package stream

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/igolaizola/emacross/pkg/metrics"
	"github.com/igolaizola/emacross/pkg/signal"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	bufferSize = 64
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts crossover events to websocket clients. New clients receive
// the last event of every symbol first. Clients that can't keep up are
// disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger
	metrics  *metrics.Metrics

	lock    sync.Mutex
	clients map[*client]struct{}
	latest  map[string][]byte
}

func NewHub(log zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log.With().Str("component", "stream").Logger(),
		metrics: m,
		clients: make(map[*client]struct{}),
		latest:  make(map[string][]byte),
	}
}

// Publish implements the engine sink.
func (h *Hub) Publish(ev signal.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", ev.Symbol).Msg("couldn't encode event")
		return
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	h.latest[ev.Symbol] = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.remove(c)
			h.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("slow client dropped")
		}
	}
}

// remove must be called with the lock held.
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.StreamConns.Set(float64(len(h.clients)))
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("couldn't upgrade connection")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, bufferSize)}

	h.lock.Lock()
	symbols := make([]string, 0, len(h.latest))
	for s := range h.latest {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		select {
		case c.send <- h.latest[s]:
		default:
		}
	}
	h.clients[c] = struct{}{}
	h.metrics.StreamConns.Set(float64(len(h.clients)))
	h.lock.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards incoming messages and detects closed connections.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.lock.Lock()
		h.remove(c)
		h.lock.Unlock()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
