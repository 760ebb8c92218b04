package web

import (
    "context"
    "encoding/json"
    "log"
    "sync"
    "time"

    "nhooyr.io/websocket"
)

const emitTimeout = 5 * time.Second

// envelope is the wire frame for server-to-browser events.
type envelope struct {
    Event string `json:"event"`
    Data  any    `json:"data"`
}

// Hub broadcasts session events to every connected browser client. It
// implements agent.Emitter.
type Hub struct {
    mu      sync.Mutex
    clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
    return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) add(c *websocket.Conn) {
    h.mu.Lock()
    h.clients[c] = struct{}{}
    n := len(h.clients)
    h.mu.Unlock()
    metricClients.Set(float64(n))
}

func (h *Hub) remove(c *websocket.Conn) {
    h.mu.Lock()
    delete(h.clients, c)
    n := len(h.clients)
    h.mu.Unlock()
    metricClients.Set(float64(n))
}

// Emit sends one event to all clients. A failed write only logs; the client's
// own read loop notices the broken connection and cleans up.
func (h *Hub) Emit(event string, payload any) {
    b, err := json.Marshal(envelope{Event: event, Data: payload})
    if err != nil {
        log.Printf("[web] marshal %s event: %v", event, err)
        return
    }
    h.mu.Lock()
    conns := make([]*websocket.Conn, 0, len(h.clients))
    for c := range h.clients {
        conns = append(conns, c)
    }
    h.mu.Unlock()

    metricEventsEmitted.WithLabelValues(event).Inc()
    for _, c := range conns {
        ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
        if err := c.Write(ctx, websocket.MessageText, b); err != nil {
            metricEmitErrors.Inc()
        }
        cancel()
    }
}
