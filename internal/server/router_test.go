package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/goevery/chatrelay/internal/broadcaster"
	"github.com/goevery/chatrelay/internal/chat"
	"github.com/goevery/chatrelay/internal/gateway"
	"github.com/goevery/chatrelay/internal/messagelog"
	"github.com/goevery/chatrelay/internal/persistence"
	"github.com/goevery/chatrelay/internal/rpc"
	"github.com/goevery/chatrelay/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Submit(ctx context.Context, req rpc.SubmitRequest) (rpc.Response, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(rpc.Response), args.Error(1)
}

func (m *MockChatService) FetchRecent(ctx context.Context, req rpc.FetchRecentRequest) (rpc.Response, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(rpc.Response), args.Error(1)
}

type testStack struct {
	engine *persistence.MemoryEngine
	hub    *gateway.Hub
	router *Router
}

func newTestStack() *testStack {
	logger := zap.NewNop()
	engine := persistence.NewMemoryEngine(logger, messagelog.DefaultMaxAttempts)
	hub := gateway.NewHub(logger)
	dispatcher := broadcaster.NewDispatcher(logger, hub, broadcaster.DefaultConcurrency)

	router := NewRouter(
		logger,
		session.NewManager(logger, engine),
		chat.NewService(logger, engine, engine, dispatcher, chat.DefaultRecentLimit),
	)

	return &testStack{engine, hub, router}
}

func messageEvent(connectionId string, body string) rpc.Event {
	return rpc.Event{
		Type:         rpc.EventTypeMessage,
		ConnectionId: connectionId,
		Body:         json.RawMessage(body),
	}
}

func TestRouter_RouteEvent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		event    rpc.Event
		expected rpc.Response
	}{
		{
			name:     "connect",
			event:    rpc.Event{Type: rpc.EventTypeConnect, ConnectionId: "conn-1"},
			expected: rpc.NewResponse(http.StatusOK, "Connect successful"),
		},
		{
			name:     "disconnect unknown connection",
			event:    rpc.Event{Type: rpc.EventTypeDisconnect, ConnectionId: "ghost"},
			expected: rpc.NewResponse(http.StatusOK, "Disconnect successful"),
		},
		{
			name:     "unrecognized event type",
			event:    rpc.Event{Type: "RECONNECT", ConnectionId: "conn-1"},
			expected: rpc.NewResponse(http.StatusInternalServerError, "Unrecognized event type"),
		},
		{
			name:     "send message",
			event:    messageEvent("conn-1", `{"action":"sendMessage","username":"alice","content":"hi"}`),
			expected: rpc.NewResponse(http.StatusOK, "Message sent to all connections"),
		},
		{
			name:     "send message without username",
			event:    messageEvent("conn-1", `{"action":"sendMessage","content":"hi"}`),
			expected: rpc.NewResponse(http.StatusBadRequest, "'username' not in message"),
		},
		{
			name:     "send message without content",
			event:    messageEvent("conn-1", `{"action":"sendMessage","username":"alice"}`),
			expected: rpc.NewResponse(http.StatusBadRequest, "'content' not in message"),
		},
		{
			name:     "send message with null username",
			event:    messageEvent("conn-1", `{"action":"sendMessage","username":null,"content":"hi"}`),
			expected: rpc.NewResponse(http.StatusOK, "Message sent to all connections"),
		},
		{
			name:     "send message with non-string content",
			event:    messageEvent("conn-1", `{"action":"sendMessage","username":"alice","content":42}`),
			expected: rpc.NewResponse(http.StatusBadRequest, "'content' must be a string"),
		},
		{
			name:     "get recent messages with unrelated non-string field",
			event:    messageEvent("conn-1", `{"action":"getRecentMessages","username":5}`),
			expected: rpc.NewResponse(http.StatusOK, "Sent recent messages"),
		},
		{
			name:     "get recent messages",
			event:    messageEvent("conn-1", `{"action":"getRecentMessages"}`),
			expected: rpc.NewResponse(http.StatusOK, "Sent recent messages"),
		},
		{
			name:     "ping",
			event:    messageEvent("conn-1", `{"action":"ping"}`),
			expected: rpc.NewResponse(http.StatusOK, "Pong!"),
		},
		{
			name:     "unrecognized action",
			event:    messageEvent("conn-1", `{"action":"dance"}`),
			expected: rpc.NewResponse(http.StatusBadRequest, "Unrecognized action"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := newTestStack()

			response := stack.router.RouteEvent(ctx, tt.event)

			assert.Equal(t, tt.expected, response)
		})
	}
}

func TestRouter_PingWritesNothing(t *testing.T) {
	ctx := context.Background()
	stack := newTestStack()

	stack.router.RouteEvent(ctx, messageEvent("conn-1", `{"action":"ping"}`))

	recent, err := stack.engine.RecentN(ctx, messagelog.DefaultRoom, 10)
	assert.NoError(t, err)
	assert.Empty(t, recent)
}

func TestRouter_StorageFailure(t *testing.T) {
	ctx := context.Background()
	chatService := &MockChatService{}
	chatService.On("Submit", mock.Anything, mock.Anything).
		Return(rpc.Response{}, errors.New("store unavailable")).Once()

	router := NewRouter(zap.NewNop(), session.NewManager(zap.NewNop(), persistence.NewMemoryEngine(zap.NewNop(), 1)), chatService)

	response := router.RouteEvent(ctx, messageEvent("conn-1", `{"action":"sendMessage","username":"alice","content":"hi"}`))

	assert.Equal(t, rpc.NewResponse(http.StatusInternalServerError, "Internal error"), response)
	chatService.AssertExpectations(t)
}

func TestRouter_DispatchesTypedRequests(t *testing.T) {
	ctx := context.Background()
	chatService := &MockChatService{}
	chatService.On("FetchRecent", mock.Anything, rpc.FetchRecentRequest{ConnectionId: "conn-9"}).
		Return(rpc.NewResponse(http.StatusOK, "Sent recent messages"), nil).Once()

	router := NewRouter(zap.NewNop(), session.NewManager(zap.NewNop(), persistence.NewMemoryEngine(zap.NewNop(), 1)), chatService)

	response := router.RouteEvent(ctx, messageEvent("conn-9", `{"action":"getRecentMessages"}`))

	assert.Equal(t, http.StatusOK, response.StatusCode)
	chatService.AssertExpectations(t)
}
