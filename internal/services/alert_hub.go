package services

import (
	"context"
	"sync"
	"time"

	"safeguard-go/internal/models"

	"github.com/gorilla/websocket"
)

const (
	AlertActivated = "ALERT_ACTIVATED"
	AlertResolved  = "ALERT_RESOLVED"
)

type alertWriter interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// AlertHub pushes SOS alert changes to connected admin websockets.
type AlertHub struct {
	mu      sync.Mutex
	clients map[alertWriter]bool
	ch      chan models.AlertEvent
}

func NewAlertHub() *AlertHub {
	return &AlertHub{
		clients: map[alertWriter]bool{},
		ch:      make(chan models.AlertEvent, 64),
	}
}

func (h *AlertHub) Run(ctx context.Context) {
	for {
		select {
		case event := <-h.ch:
			h.deliver(event)
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *AlertHub) deliver(event models.AlertEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Broadcast queues event; it is dropped when the queue is full.
func (h *AlertHub) Broadcast(eventType string, alert models.SOSAlert) {
	select {
	case h.ch <- models.AlertEvent{Type: eventType, Alert: alert}:
	default:
	}
}

func (h *AlertHub) Add(conn *websocket.Conn) {
	h.add(conn)
}

func (h *AlertHub) add(conn alertWriter) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *AlertHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *AlertHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
