package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"shithead-server/internal/shithead"
)

// connection pairs a websocket with a bounded outbound queue. A single
// writer goroutine drains the queue, so broadcasts and replies from
// different goroutines never interleave on the socket. A full queue drops
// the message instead of blocking the sender.
type connection struct {
	id       string
	clientID shithead.ClientID
	socket   *websocket.Conn
	outbound chan ServerMessage
	done     chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

func newConnection(id string, clientID shithead.ClientID, socket *websocket.Conn, bufferSize int, logger *zap.Logger) *connection {
	return &connection{
		id:       id,
		clientID: clientID,
		socket:   socket,
		outbound: make(chan ServerMessage, bufferSize),
		done:     make(chan struct{}),
		logger:   logger.With(zap.String("connectionId", id)),
	}
}

// Send implements shithead.EventSink: lobby events addressed to this client
// go through the same outbound queue as direct replies.
func (c *connection) Send(event shithead.Event) {
	c.enqueue(ServerMessage{Type: event.Type, Payload: event.Payload})
}

func (c *connection) enqueue(msg ServerMessage) {
	select {
	case c.outbound <- msg:
	case <-c.done:
	default:
		// a consumer this far behind rebuilds its view on its next join
		c.logger.Warn("outbound queue full, dropping message", zap.String("type", msg.Type))
	}
}

// writeLoop drains the outbound queue onto the socket until the connection
// closes.
func (c *connection) writeLoop(ctx context.Context) {
	for {
		select {
		case msg := <-c.outbound:
			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("failed to marshal outbound message", zap.Error(err))
				continue
			}
			if err := c.socket.Write(ctx, websocket.MessageText, data); err != nil {
				c.logger.Debug("write failed, closing connection", zap.Error(err))
				c.close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() { close(c.done) })
}

// ConnectionManager tracks every live connection by its id.
type ConnectionManager struct {
	connections map[string]*connection
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{connections: make(map[string]*connection)}
}

func (cm *ConnectionManager) Add(conn *connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn.id] = conn
}

func (cm *ConnectionManager) Remove(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.connections, id)
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll shuts down every connection's writer. Used during server
// shutdown.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for id, conn := range cm.connections {
		conn.close()
		delete(cm.connections, id)
	}
}
