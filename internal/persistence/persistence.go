package persistence

import (
	"context"

	"github.com/goevery/chatrelay/internal/messagelog"
	"github.com/goevery/chatrelay/internal/registry"
)

// Engine is a durable store backing both the connection registry and the message log.
type Engine interface {
	registry.Registry
	messagelog.Log

	Setup(ctx context.Context) error
	Close(ctx context.Context) error
}

type Driver string

const (
	DriverMemory  Driver = "memory"
	DriverMongoDB Driver = "mongodb"
	DriverSQLite  Driver = "sqlite"
)
