package chat

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goevery/chatrelay/internal/broadcaster"
	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/messagelog"
	"github.com/goevery/chatrelay/internal/registry"
	"github.com/goevery/chatrelay/internal/rpc"
	"go.uber.org/zap"
)

const DefaultRecentLimit = 10

type Dispatcher interface {
	Broadcast(ctx context.Context, payload any, connectionIds []string) []broadcaster.DeliveryResult
	Unicast(ctx context.Context, payload any, connectionId string) broadcaster.DeliveryResult
}

type ServiceInterface interface {
	Submit(ctx context.Context, req rpc.SubmitRequest) (rpc.Response, error)
	FetchRecent(ctx context.Context, req rpc.FetchRecentRequest) (rpc.Response, error)
}

type Service struct {
	logger      *zap.Logger
	log         messagelog.Log
	registry    registry.Registry
	dispatcher  Dispatcher
	recentLimit int

	now func() time.Time
}

func NewService(
	logger *zap.Logger,
	log messagelog.Log,
	registry registry.Registry,
	dispatcher Dispatcher,
	recentLimit int,
) *Service {
	if recentLimit < 1 {
		recentLimit = DefaultRecentLimit
	}

	return &Service{
		logger:      logger,
		log:         log,
		registry:    registry,
		dispatcher:  dispatcher,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

func (s *Service) Submit(ctx context.Context, req rpc.SubmitRequest) (rpc.Response, error) {
	s.logger.Info("message submitted", zap.String("connectionId", req.ConnectionId))

	if req.Username == nil {
		return rpc.Response{}, missingField("username")
	}

	if req.Content == nil {
		return rpc.Response{}, missingField("content")
	}

	message, err := s.log.AppendWithSequence(
		ctx,
		messagelog.DefaultRoom,
		s.now().Unix(),
		*req.Username,
		*req.Content,
	)
	if err != nil {
		return rpc.Response{}, err
	}

	connectionIds, err := s.registry.ListAll(ctx)
	if err != nil {
		return rpc.Response{}, err
	}

	s.logger.Debug("broadcasting message",
		zap.String("room", message.Room),
		zap.Uint64("index", message.Index),
		zap.Int("recipients", len(connectionIds)))

	payload := Payload{
		Messages: []PayloadMessage{toPayloadMessage(message)},
	}
	s.dispatcher.Broadcast(ctx, payload, connectionIds)

	return rpc.NewResponse(http.StatusOK, "Message sent to all connections"), nil
}

func (s *Service) FetchRecent(ctx context.Context, req rpc.FetchRecentRequest) (rpc.Response, error) {
	s.logger.Info("retrieving most recent messages", zap.String("connectionId", req.ConnectionId))

	recent, err := s.log.RecentN(ctx, messagelog.DefaultRoom, s.recentLimit)
	if err != nil {
		return rpc.Response{}, err
	}

	// RecentN is newest first, clients expect chronological order
	messages := make([]PayloadMessage, len(recent))
	for i, message := range recent {
		messages[len(recent)-1-i] = toPayloadMessage(message)
	}

	s.dispatcher.Unicast(ctx, Payload{Messages: messages}, req.ConnectionId)

	return rpc.NewResponse(http.StatusOK, "Sent recent messages"), nil
}

func missingField(field string) error {
	return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("'"+field+"' not in message"))
}
