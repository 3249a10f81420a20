// Package communication fans run events out to connected websocket clients.
package communication

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// WSEvent is one message pushed to every connected client.
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types pushed over the websocket.
const (
	EventRunStarted    = "RUN_STARTED"
	EventAgentDecision = "AGENT_DECISION"
	EventRunCompleted  = "RUN_COMPLETED"
	EventRunFailed     = "RUN_FAILED"
)

// Manager tracks websocket clients and broadcasts events to all of them.
// One goroutine owns the client set; Register, Unregister and Broadcast
// are safe from anywhere. Construct with NewManager, stop with Close.
type Manager struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan WSEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	count      int64
}

// NewManager starts the fan-out loop.
func NewManager() *Manager {
	m := &Manager{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan WSEvent, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	for {
		select {
		case <-m.done:
			for client := range m.clients {
				client.Close()
			}
			return

		case client := <-m.register:
			m.clients[client] = true
			atomic.StoreInt64(&m.count, int64(len(m.clients)))

		case client := <-m.unregister:
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				client.Close()
			}
			atomic.StoreInt64(&m.count, int64(len(m.clients)))

		case event := <-m.broadcast:
			for client := range m.clients {
				if err := client.WriteJSON(event); err != nil {
					log.Printf("communication: websocket write failed: %v", err)
					client.Close()
					delete(m.clients, client)
				}
			}
			atomic.StoreInt64(&m.count, int64(len(m.clients)))
		}
	}
}

// Register adds a client to the broadcast set.
func (m *Manager) Register(conn *websocket.Conn) {
	select {
	case m.register <- conn:
	case <-m.done:
		conn.Close()
	}
}

// Unregister drops a client and closes its connection.
func (m *Manager) Unregister(conn *websocket.Conn) {
	select {
	case m.unregister <- conn:
	case <-m.done:
	}
}

// Broadcast pushes an event to every connected client. Events sent while
// the manager is closed are dropped.
func (m *Manager) Broadcast(eventType string, payload interface{}) {
	select {
	case m.broadcast <- WSEvent{Type: eventType, Payload: payload}:
	case <-m.done:
	}
}

// ClientCount reports how many clients are connected.
func (m *Manager) ClientCount() int {
	return int(atomic.LoadInt64(&m.count))
}

// Close stops the fan-out loop and disconnects every client.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
