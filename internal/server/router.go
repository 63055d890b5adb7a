package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/goevery/chatrelay/internal/chat"
	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/rpc"
	"github.com/goevery/chatrelay/internal/session"
	"go.uber.org/zap"
)

type Router struct {
	logger *zap.Logger

	sessionManager session.ManagerInterface
	chatService    chat.ServiceInterface
}

func NewRouter(
	logger *zap.Logger,
	sessionManager session.ManagerInterface,
	chatService chat.ServiceInterface,
) *Router {
	return &Router{
		logger,
		sessionManager,
		chatService,
	}
}

// RouteEvent decodes the event once and answers it. Storage failures are
// reported as internal errors, everything else is a regular response.
func (r *Router) RouteEvent(ctx context.Context, event rpc.Event) rpc.Response {
	response, err := r.Handle(ctx, rpc.Decode(event))
	if err != nil {
		return r.mapError(err)
	}

	return response
}

func (r *Router) Handle(ctx context.Context, request rpc.Request) (rpc.Response, error) {
	switch req := request.(type) {
	case rpc.LifecycleRequest:
		return r.sessionManager.Handle(ctx, req)
	case rpc.SubmitRequest:
		return r.chatService.Submit(ctx, req)
	case rpc.FetchRecentRequest:
		return r.chatService.FetchRecent(ctx, req)
	case rpc.PingRequest:
		r.logger.Info("ping requested", zap.String("connectionId", req.ConnectionId))

		return rpc.NewResponse(http.StatusOK, "Pong!"), nil
	case rpc.InvalidRequest:
		r.logger.Info("invalid websocket request received",
			zap.String("action", req.Action),
			zap.String("connectionId", req.ConnectionId),
			zap.Error(req.Err))

		return rpc.Response{}, req.Err
	case rpc.UnrecognizedActionRequest:
		r.logger.Info("unrecognized websocket action received",
			zap.String("action", req.Action),
			zap.String("connectionId", req.ConnectionId))

		return rpc.Response{}, ierr.Newf(ierr.ErrorCodeUnrecognizedAction, "unrecognized action: "+req.Action)
	default:
		return rpc.Response{}, errors.New("unsupported request type")
	}
}

func (r *Router) mapError(err error) rpc.Response {
	var handlerErr ierr.Error
	if !errors.As(err, &handlerErr) {
		r.logger.Error("error in event handler", zap.Error(err))

		return rpc.NewResponse(http.StatusInternalServerError, "Internal error")
	}

	switch handlerErr.Code {
	case ierr.ErrorCodeUnrecognizedAction:
		return rpc.NewResponse(handlerErr.StatusCode(), "Unrecognized action")
	case ierr.ErrorCodeUnrecognizedEvent:
		return rpc.NewResponse(handlerErr.StatusCode(), "Unrecognized event type")
	default:
		r.logger.Debug("event rejected", zap.Error(err))

		return rpc.NewResponse(handlerErr.StatusCode(), handlerErr.Message)
	}
}
