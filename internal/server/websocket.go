package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/goevery/chatrelay/internal/gateway"
	"github.com/goevery/chatrelay/internal/rpc"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	maxMessageSize = 8192
	sendBufferSize = 64
	writeWait      = 10 * time.Second
)

type EventRouter interface {
	RouteEvent(ctx context.Context, event rpc.Event) rpc.Response
}

type WebSocketServer struct {
	logger   *zap.Logger
	upgrader *websocket.Upgrader
	hub      *gateway.Hub
	router   EventRouter
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	hub *gateway.Hub,
	router EventRouter,
) *WebSocketServer {
	return &WebSocketServer{
		logger,
		upgrader,
		hub,
		router,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/websocket", s.serve).Methods("GET")
}

func (s *WebSocketServer) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connectionId, err := gonanoid.New()
	if err != nil {
		s.logger.Error("failed to generate connection id", zap.Error(err))
		return
	}

	logger := s.logger.With(zap.String("connectionId", connectionId))
	ctx := context.WithoutCancel(r.Context())

	connection := gateway.NewConnection(connectionId, sendBufferSize)
	s.hub.Attach(connection)

	writerDone := make(chan struct{})
	go s.writePump(logger, conn, connection, writerDone)

	defer func() {
		response := s.router.RouteEvent(ctx, rpc.Event{
			Type:         rpc.EventTypeDisconnect,
			ConnectionId: connectionId,
		})
		if response.IsFailure() {
			logger.Error("disconnect failed", zap.Int("statusCode", response.StatusCode))
		}

		s.hub.Detach(connectionId)
		<-writerDone

		logger.Info("websocket connection closed")
	}()

	response := s.router.RouteEvent(ctx, rpc.Event{
		Type:         rpc.EventTypeConnect,
		ConnectionId: connectionId,
	})
	if response.IsFailure() {
		logger.Error("connect failed", zap.Int("statusCode", response.StatusCode))
		return
	}

	logger.Info("websocket connection established")

	conn.SetReadLimit(maxMessageSize)

	for {
		messageType, body, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		response := s.router.RouteEvent(ctx, rpc.Event{
			Type:         rpc.EventTypeMessage,
			ConnectionId: connectionId,
			Body:         json.RawMessage(body),
		})

		s.reply(ctx, logger, connectionId, response)
	}
}

// reply goes through the hub so the write pump stays the only writer of the socket.
func (s *WebSocketServer) reply(ctx context.Context, logger *zap.Logger, connectionId string, response rpc.Response) {
	data, err := json.Marshal(response)
	if err != nil {
		logger.Error("failed to encode response", zap.Error(err))
		return
	}

	if err := s.hub.Push(ctx, connectionId, data); err != nil {
		logger.Warn("failed to send response", zap.Error(err))
	}
}

func (s *WebSocketServer) writePump(
	logger *zap.Logger,
	conn *websocket.Conn,
	connection *gateway.Connection,
	done chan<- struct{},
) {
	defer close(done)

	for data := range connection.Send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))

		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))

			// Unblock the reader, the deferred disconnect detaches the connection
			conn.Close()

			for range connection.Send {
			}

			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
