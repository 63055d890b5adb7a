package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Registry tracks the identifiers of live connections.
type Registry interface {
	// Add inserts a connection, adding an existing one is a no-op
	Add(ctx context.Context, connectionId string) error

	// Remove deletes a connection, removing an unknown one is a no-op
	Remove(ctx context.Context, connectionId string) error

	// ListAll returns a point-in-time snapshot of every connection, in no particular order
	ListAll(ctx context.Context) ([]string, error)
}

type InMemoryRegistry struct {
	logger *zap.Logger
	mu     sync.RWMutex

	connections map[string]struct{}
}

func NewInMemoryRegistry(
	logger *zap.Logger,
) *InMemoryRegistry {
	return &InMemoryRegistry{
		logger:      logger,
		connections: make(map[string]struct{}),
	}
}

func (r *InMemoryRegistry) Add(ctx context.Context, connectionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[connectionId]; ok {
		r.logger.Debug("connection already registered",
			zap.String("connectionId", connectionId))

		return nil
	}

	r.connections[connectionId] = struct{}{}

	return nil
}

func (r *InMemoryRegistry) Remove(ctx context.Context, connectionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.connections, connectionId)

	return nil
}

func (r *InMemoryRegistry) ListAll(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connectionIds := make([]string, 0, len(r.connections))
	for connectionId := range r.connections {
		connectionIds = append(connectionIds, connectionId)
	}

	return connectionIds, nil
}
