package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/goevery/chatrelay/internal/broadcaster"
	"github.com/goevery/chatrelay/internal/chat"
	"github.com/goevery/chatrelay/internal/gateway"
	"github.com/goevery/chatrelay/internal/persistence"
	"github.com/goevery/chatrelay/internal/server"
	"github.com/goevery/chatrelay/internal/session"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type App struct {
	logger          *zap.Logger
	settings        Settings
	engine          persistence.Engine
	websocketServer *server.WebSocketServer
	restServer      *server.RESTServer
}

func NewApp(logger *zap.Logger, settings Settings, engine persistence.Engine) *App {
	originChecker := server.NewOriginChecker(settings.AllowedOriginList())
	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CheckOrigin:       originChecker.Check,
		EnableCompression: true,
	}

	hub := gateway.NewHub(logger)
	dispatcher := broadcaster.NewDispatcher(logger, hub, settings.DispatchConcurrency)

	sessionManager := session.NewManager(logger, engine)
	chatService := chat.NewService(logger, engine, engine, dispatcher, settings.RecentLimit)

	router := server.NewRouter(
		logger,
		sessionManager,
		chatService,
	)

	websocketServer := server.NewWebSocketServer(
		logger,
		websocketUpgrader,
		hub,
		router,
	)
	restServer := server.NewRESTServer(
		logger,
		router,
	)

	return &App{
		logger,
		settings,
		engine,
		websocketServer,
		restServer,
	}
}

func (a *App) setup(ctx context.Context) error {
	err := a.engine.Setup(ctx)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}

	return nil
}

func (a *App) startHttpServer(ctx context.Context) {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	address := fmt.Sprintf("0.0.0.0:%d", a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()

	a.websocketServer.Register(router)
	a.restServer.Register(router)

	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	a.logger.Info("starting http server",
		zap.String("address", address),
		zap.String("storageDriver", a.settings.StorageDriver))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server")

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Fatal("http server shutdown failed",
			zap.Error(err))
	}

	err = a.engine.Close(shutdownCtx)
	if err != nil {
		a.logger.Error("failed to close storage", zap.Error(err))
	}

	a.logger.Info("http server stopped")
}
