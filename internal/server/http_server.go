package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CreateServer configures an HTTP server for addr. Websocket connections
// are hijacked, so the timeouts only govern plain HTTP requests.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartServer listens until the server is shut down. A normal shutdown
// returns nil.
func StartServer(srv *http.Server, log *zap.Logger) error {
	log.Info("server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ShutdownServer stops accepting connections and waits for in-flight HTTP
// requests until ctx ends. Hijacked websocket connections are not tracked
// by net/http; Manager.Shutdown closes those.
func ShutdownServer(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	log.Info("shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown", zap.Error(err))
		return err
	}
	log.Info("HTTP server shutdown completed")
	return nil
}
