package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/goevery/chatrelay/internal/rpc"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RESTServer accepts gateway events over plain HTTP, one invocation per request.
type RESTServer struct {
	logger *zap.Logger

	router EventRouter
}

func NewRESTServer(
	logger *zap.Logger,
	router EventRouter,
) *RESTServer {
	return &RESTServer{
		logger,
		router,
	}
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/events", s.handleEvent).Methods("POST", "OPTIONS")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
}

func (s *RESTServer) handleEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		return
	}

	invocationId := uuid.NewString()
	logger := s.logger.With(zap.String("invocationId", invocationId))

	var event rpc.Event
	err := json.NewDecoder(r.Body).Decode(&event)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	logger.Debug("event received",
		zap.String("eventType", string(event.Type)),
		zap.String("connectionId", event.ConnectionId))

	// The invoker hanging up must not abort a fanout that already started
	response := s.router.RouteEvent(context.WithoutCancel(r.Context()), event)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Invocation-Id", invocationId)
	w.WriteHeader(response.StatusCode)

	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
