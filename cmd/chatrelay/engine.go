package main

import (
	"fmt"

	"github.com/goevery/chatrelay/internal/persistence"
	"github.com/goevery/chatrelay/internal/persistence/mongodb"
	"github.com/goevery/chatrelay/internal/persistence/sqlite"
	"go.uber.org/zap"
)

func openEngine(logger *zap.Logger, settings Settings) (persistence.Engine, error) {
	switch persistence.Driver(settings.StorageDriver) {
	case persistence.DriverMemory:
		logger.Warn("using in-memory storage, state is lost on restart")

		return persistence.NewMemoryEngine(logger, settings.AppendMaxAttempts), nil
	case persistence.DriverMongoDB:
		client, err := mongodb.Connect(settings.MongoDBURI)
		if err != nil {
			return nil, err
		}

		return mongodb.NewPersistenceEngine(client, settings.MongoDBDatabase, settings.AppendMaxAttempts), nil
	case persistence.DriverSQLite:
		engine, err := sqlite.New(settings.SQLitePath, settings.AppendMaxAttempts)
		if err != nil {
			return nil, err
		}

		return engine, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", settings.StorageDriver)
	}
}
