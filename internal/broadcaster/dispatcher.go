package broadcaster

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/goevery/chatrelay/internal/gateway"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 16

type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusGone      DeliveryStatus = "gone"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

type DeliveryResult struct {
	ConnectionId string
	Status       DeliveryStatus
	Err          error
}

// Dispatcher delivers payloads on a best-effort basis: every recipient is
// attempted independently and failures are only logged.
type Dispatcher struct {
	logger      *zap.Logger
	gateway     gateway.Gateway
	concurrency int
}

func NewDispatcher(
	logger *zap.Logger,
	gateway gateway.Gateway,
	concurrency int,
) *Dispatcher {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	return &Dispatcher{
		logger,
		gateway,
		concurrency,
	}
}

func (d *Dispatcher) Broadcast(ctx context.Context, payload any, connectionIds []string) []DeliveryResult {
	if len(connectionIds) == 0 {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("failed to encode payload", zap.Error(err))

		results := make([]DeliveryResult, len(connectionIds))
		for i, connectionId := range connectionIds {
			results[i] = DeliveryResult{connectionId, DeliveryStatusFailed, err}
		}

		return results
	}

	results := make([]DeliveryResult, len(connectionIds))

	var group errgroup.Group
	group.SetLimit(d.concurrency)

	for i, connectionId := range connectionIds {
		i, connectionId := i, connectionId
		group.Go(func() error {
			results[i] = d.push(ctx, connectionId, data)

			return nil
		})
	}

	_ = group.Wait()

	d.logResults(results)

	return results
}

func (d *Dispatcher) Unicast(ctx context.Context, payload any, connectionId string) DeliveryResult {
	return d.Broadcast(ctx, payload, []string{connectionId})[0]
}

func (d *Dispatcher) push(ctx context.Context, connectionId string, data []byte) DeliveryResult {
	err := d.gateway.Push(ctx, connectionId, data)

	switch {
	case err == nil:
		return DeliveryResult{connectionId, DeliveryStatusDelivered, nil}
	case errors.Is(err, gateway.ErrConnectionGone):
		return DeliveryResult{connectionId, DeliveryStatusGone, err}
	default:
		return DeliveryResult{connectionId, DeliveryStatusFailed, err}
	}
}

func (d *Dispatcher) logResults(results []DeliveryResult) {
	delivered := 0

	for _, result := range results {
		switch result.Status {
		case DeliveryStatusDelivered:
			delivered++
		case DeliveryStatusGone:
			d.logger.Warn("connection gone, skipping delivery",
				zap.String("connectionId", result.ConnectionId))
		default:
			d.logger.Error("failed to deliver payload",
				zap.String("connectionId", result.ConnectionId),
				zap.Error(result.Err))
		}
	}

	d.logger.Debug("payload dispatched",
		zap.Int("recipients", len(results)),
		zap.Int("delivered", delivered))
}
