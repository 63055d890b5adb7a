package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/registry"
	"github.com/goevery/chatrelay/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingRegistry struct {
	registry.Registry
	err error
}

func (r failingRegistry) Add(ctx context.Context, connectionId string) error {
	return r.err
}

func TestManager_Handle(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("connect then disconnect", func(t *testing.T) {
		reg := registry.NewInMemoryRegistry(logger)
		manager := NewManager(logger, reg)

		response, err := manager.Handle(ctx, rpc.LifecycleRequest{ConnectionId: "conn-1", EventType: rpc.EventTypeConnect})
		require.NoError(t, err)
		assert.Equal(t, rpc.NewResponse(http.StatusOK, "Connect successful"), response)

		connectionIds, err := reg.ListAll(ctx)
		require.NoError(t, err)
		assert.Contains(t, connectionIds, "conn-1")

		response, err = manager.Handle(ctx, rpc.LifecycleRequest{ConnectionId: "conn-1", EventType: rpc.EventTypeDisconnect})
		require.NoError(t, err)
		assert.Equal(t, rpc.NewResponse(http.StatusOK, "Disconnect successful"), response)

		connectionIds, err = reg.ListAll(ctx)
		require.NoError(t, err)
		assert.NotContains(t, connectionIds, "conn-1")
	})

	t.Run("disconnect of unknown connection succeeds", func(t *testing.T) {
		manager := NewManager(logger, registry.NewInMemoryRegistry(logger))

		response, err := manager.Handle(ctx, rpc.LifecycleRequest{ConnectionId: "ghost", EventType: rpc.EventTypeDisconnect})

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, response.StatusCode)
	})

	t.Run("unrecognized event does not touch the registry", func(t *testing.T) {
		reg := registry.NewInMemoryRegistry(logger)
		manager := NewManager(logger, reg)

		_, err := manager.Handle(ctx, rpc.LifecycleRequest{ConnectionId: "conn-1", EventType: "RECONNECT"})

		assert.True(t, ierr.IsCode(err, ierr.ErrorCodeUnrecognizedEvent))

		connectionIds, listErr := reg.ListAll(ctx)
		require.NoError(t, listErr)
		assert.Empty(t, connectionIds)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		storageErr := errors.New("store unavailable")
		manager := NewManager(logger, failingRegistry{err: storageErr})

		_, err := manager.Handle(ctx, rpc.LifecycleRequest{ConnectionId: "conn-1", EventType: rpc.EventTypeConnect})

		assert.ErrorIs(t, err, storageErr)
	})
}
