package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Manager tracks browser connections and fans messages out to them.
type Manager struct {
	mu           sync.RWMutex
	connections  map[string]*Connection
	pingInterval time.Duration
	onCount      func(int)
}

// NewManager builds a connection manager. onCount, when set, receives the client count
// after every change.
func NewManager(pingInterval time.Duration, onCount func(int)) *Manager {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Manager{
		connections:  make(map[string]*Connection),
		pingInterval: pingInterval,
		onCount:      onCount,
	}
}

// Add registers a connection.
func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	m.connections[conn.ClientID()] = conn
	n := len(m.connections)
	m.mu.Unlock()
	m.counted(n)
}

// Remove forgets a connection.
func (m *Manager) Remove(clientID string) {
	m.mu.Lock()
	delete(m.connections, clientID)
	n := len(m.connections)
	m.mu.Unlock()
	m.counted(n)
}

// Count returns the number of connected clients.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Broadcast queues msg on every connection.
func (m *Manager) Broadcast(msg []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conn := range m.connections {
		conn.Send(msg)
	}
}

// BroadcastMessage encodes a typed message and broadcasts it.
func (m *Manager) BroadcastMessage(msgType string, payload interface{}) error {
	raw, err := Encode(msgType, payload)
	if err != nil {
		return fmt.Errorf("broadcast %s: %w", msgType, err)
	}
	m.Broadcast(raw)
	return nil
}

// Start pings every connection until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			for _, conn := range m.connections {
				_ = conn.Ping()
			}
			m.mu.RUnlock()
		}
	}
}

func (m *Manager) counted(n int) {
	if m.onCount != nil {
		m.onCount(n)
	}
}

// Encode builds the wire form of an outgoing message.
func Encode(msgType string, payload interface{}) ([]byte, error) {
	msg := struct {
		Type    string      `json:"type"`
		Payload interface{} `json:"payload,omitempty"`
	}{Type: msgType, Payload: payload}
	return json.Marshal(msg)
}
