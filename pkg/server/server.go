package server

import (
	"context"
	"net/http"
	"time"

	"github.com/fieldwise/bridge/pkg/demo"
	"github.com/fieldwise/bridge/pkg/facade"
	"github.com/fieldwise/bridge/pkg/logger"
	"github.com/fieldwise/bridge/pkg/upstream"
)

// Server exposes the bridge's two facades and the control passthrough
// endpoints over HTTP.
type Server struct {
	upstream   *upstream.Client
	aggregator *facade.Aggregator
	stages     demo.StageStore
	httpServer *http.Server
}

// New wires a server around the given upstream client. A nil stage store
// disables the demo endpoints.
func New(address string, client *upstream.Client, stages demo.StageStore) *Server {
	s := &Server{
		upstream:   client,
		aggregator: facade.NewAggregator(client),
		stages:     stages,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chat/stream", s.handleChatStream)
	mux.HandleFunc("/api/threads", s.handleThreads)
	mux.HandleFunc("/api/actions/undo", s.handleUndo)
	if stages != nil {
		mux.HandleFunc("/api/demo/stage", s.handleDemoStage)
		mux.HandleFunc("/api/demo/reset", s.handleDemoReset)
	}

	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, mainly for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	logger.Info("server: listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
