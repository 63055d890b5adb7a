package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goevery/chatrelay/internal/persistence"
	"github.com/goevery/chatrelay/internal/persistence/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenEngine(t *testing.T) {
	logger := zap.NewNop()

	t.Run("memory", func(t *testing.T) {
		engine, err := openEngine(logger, Settings{StorageDriver: "memory", AppendMaxAttempts: 8})

		require.NoError(t, err)
		assert.IsType(t, &persistence.MemoryEngine{}, engine)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chatrelay.db")

		engine, err := openEngine(logger, Settings{StorageDriver: "sqlite", SQLitePath: path, AppendMaxAttempts: 8})

		require.NoError(t, err)
		assert.IsType(t, &sqlite.PersistenceEngine{}, engine)
		assert.NoError(t, engine.Setup(context.Background()))
		assert.NoError(t, engine.Close(context.Background()))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := openEngine(logger, Settings{StorageDriver: "dynamodb"})

		assert.ErrorContains(t, err, "dynamodb")
	})
}

func TestSettings_AllowedOriginList(t *testing.T) {
	assert.Nil(t, Settings{}.AllowedOriginList())
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		Settings{AllowedOrigins: "https://a.example,https://b.example"}.AllowedOriginList())
}
