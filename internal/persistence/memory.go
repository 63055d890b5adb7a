package persistence

import (
	"context"

	"github.com/goevery/chatrelay/internal/messagelog"
	"github.com/goevery/chatrelay/internal/registry"
	"go.uber.org/zap"
)

// MemoryEngine keeps everything in process, state is lost on restart.
type MemoryEngine struct {
	*registry.InMemoryRegistry
	*messagelog.InMemoryLog
}

func NewMemoryEngine(logger *zap.Logger, maxAttempts int) *MemoryEngine {
	return &MemoryEngine{
		registry.NewInMemoryRegistry(logger),
		messagelog.NewInMemoryLog(maxAttempts),
	}
}

func (e *MemoryEngine) Setup(ctx context.Context) error {
	return nil
}

func (e *MemoryEngine) Close(ctx context.Context) error {
	return nil
}
