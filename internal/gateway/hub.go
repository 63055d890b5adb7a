package gateway

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrConnectionGone = errors.New("connection gone")
	ErrSendBufferFull = errors.New("connection send buffer is full")
)

// Gateway pushes raw payloads to a transport session.
type Gateway interface {
	Push(ctx context.Context, connectionId string, data []byte) error
}

// Hub is the in-process gateway for sockets held by this instance.
type Hub struct {
	logger *zap.Logger
	mu     sync.RWMutex

	connections map[string]*Connection
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:      logger,
		connections: make(map[string]*Connection),
	}
}

func (h *Hub) Attach(connection *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if previous, ok := h.connections[connection.Id]; ok && previous != connection {
		h.logger.Warn("replacing attached connection with the same id",
			zap.String("connectionId", connection.Id))

		previous.close()
	}

	h.connections[connection.Id] = connection
}

// Detach forgets the connection and closes its send channel, unblocking its writer.
func (h *Hub) Detach(connectionId string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	connection, ok := h.connections[connectionId]
	if !ok {
		return
	}

	delete(h.connections, connectionId)
	connection.close()
}

// Push never blocks and ignores ctx cancellation.
func (h *Hub) Push(ctx context.Context, connectionId string, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	connection, ok := h.connections[connectionId]
	if !ok {
		return ErrConnectionGone
	}

	select {
	case connection.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.connections)
}
