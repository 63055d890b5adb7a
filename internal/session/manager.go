package session

import (
	"context"
	"net/http"

	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/registry"
	"github.com/goevery/chatrelay/internal/rpc"
	"go.uber.org/zap"
)

type ManagerInterface interface {
	Handle(ctx context.Context, req rpc.LifecycleRequest) (rpc.Response, error)
}

// Manager moves connections between absent and active by mutating the registry.
type Manager struct {
	logger   *zap.Logger
	registry registry.Registry
}

func NewManager(logger *zap.Logger, registry registry.Registry) *Manager {
	return &Manager{
		logger,
		registry,
	}
}

func (m *Manager) Handle(ctx context.Context, req rpc.LifecycleRequest) (rpc.Response, error) {
	switch req.EventType {
	case rpc.EventTypeConnect:
		return m.Connect(ctx, req.ConnectionId)
	case rpc.EventTypeDisconnect:
		return m.Disconnect(ctx, req.ConnectionId)
	default:
		m.logger.Error("connection manager received unrecognized event type",
			zap.String("eventType", string(req.EventType)),
			zap.String("connectionId", req.ConnectionId))

		return rpc.Response{}, ierr.Newf(ierr.ErrorCodeUnrecognizedEvent,
			"unrecognized event type: "+string(req.EventType))
	}
}

func (m *Manager) Connect(ctx context.Context, connectionId string) (rpc.Response, error) {
	m.logger.Info("connect requested", zap.String("connectionId", connectionId))

	if err := m.registry.Add(ctx, connectionId); err != nil {
		return rpc.Response{}, err
	}

	return rpc.NewResponse(http.StatusOK, "Connect successful"), nil
}

func (m *Manager) Disconnect(ctx context.Context, connectionId string) (rpc.Response, error) {
	m.logger.Info("disconnect requested", zap.String("connectionId", connectionId))

	if err := m.registry.Remove(ctx, connectionId); err != nil {
		return rpc.Response{}, err
	}

	return rpc.NewResponse(http.StatusOK, "Disconnect successful"), nil
}
