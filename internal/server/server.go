package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Kubana90/operator-996-cognitive-os/internal/engine"
	"github.com/Kubana90/operator-996-cognitive-os/internal/logging"
)

// Server wraps the HTTP API and the live WebSocket endpoint.
type Server struct {
	engine *engine.Engine
	db     Database
	log    *logging.Logger

	mux           *http.ServeMux
	server        *http.Server
	allowedOrigin string

	upgrader websocket.Upgrader

	// WebSocket client management
	clients    map[*wsClient]bool
	clientsMu  sync.RWMutex
	register   chan *wsClient
	unregister chan *wsClient

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server around the given engine. The engine is required;
// the database is optional.
func New(cfg *Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	origin := cfg.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	s := &Server{
		engine:        cfg.Engine,
		db:            cfg.DB,
		log:           logging.Global().WithComponent("server"),
		mux:           http.NewServeMux(),
		allowedOrigin: origin,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return origin == "*" || r.Header.Get("Origin") == origin
			},
		},
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		ctx:        ctx,
		cancel:     cancel,
	}

	s.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: s,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /admin/init-db", s.handleInitDB)
	s.mux.HandleFunc("GET /profile", s.handleProfile)
	s.mux.HandleFunc("POST /event/add", s.handleAddEvent)
	s.mux.HandleFunc("GET /events", s.handleListEvents)
	s.mux.HandleFunc("POST /patterns/detect", s.handleDetectPatterns)
	s.mux.HandleFunc("POST /anomalies/detect", s.handleDetectAnomalies)
	s.mux.HandleFunc("POST /scenario/simulate", s.handleSimulate)
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("POST /import/events", s.handleImportEvents)
	s.mux.HandleFunc("GET /export/full", s.handleExport)
	s.mux.HandleFunc("GET /ws/live", s.handleWebSocket)
}

// ServeHTTP implements http.Handler with CORS and request logging
// applied to every route.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	start := time.Now()
	s.log.Request(r.Method, r.URL.Path)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	s.log.Response(r.Method, r.URL.Path, rec.status, time.Since(start))
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack delegates to the underlying writer so WebSocket upgrades work
// through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Start runs the client manager and blocks serving HTTP until the
// listener fails or Stop is called.
func (s *Server) Start() error {
	s.wg.Add(1)
	go s.runClientManager()

	s.log.Info("═══════════════════════════════════════════════════════")
	s.log.Info("Operator-996 Cognitive OS")
	s.log.Info("═══════════════════════════════════════════════════════")
	s.log.Info("Listening on %s", s.server.Addr)
	s.log.Info("  Health:    GET  /health")
	s.log.Info("  Profile:   GET  /profile")
	s.log.Info("  Events:    POST /event/add, GET /events")
	s.log.Info("  Analysis:  POST /patterns/detect, POST /anomalies/detect")
	s.log.Info("  Scenario:  POST /scenario/simulate")
	s.log.Info("  Search:    GET  /search?q=")
	s.log.Info("  Data:      POST /import/events, GET /export/full")
	s.log.Info("  Live:      WS   /ws/live")
	s.log.Info("═══════════════════════════════════════════════════════")

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server and all WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down server...")
	s.cancel()

	s.clientsMu.Lock()
	for client := range s.clients {
		close(client.send)
		delete(s.clients, client)
	}
	s.clientsMu.Unlock()

	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	return err
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
