// Package web serves the live view: receiver status, a websocket stream of
// composed epochs and simulator control.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/Bucknalla/go-pvt-nmea/pvt"
	"github.com/Bucknalla/go-pvt-nmea/sim"
)

// Config configures the HTTP listener
type Config struct {
	Enable    bool   `yaml:"enable" json:"enable"`
	Listen    string `yaml:"listen" json:"listen"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
}

// DefaultConfig listens on port 8080 without static files
func DefaultConfig() Config {
	return Config{Listen: ":8080"}
}

// Engine is the part of the epoch pipeline the server reports on
type Engine interface {
	Status() pvt.Status
	Reset()
}

// Message is one websocket frame
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Epoch is the payload of an "epoch" message
type Epoch struct {
	Sentences []string       `json:"sentences"`
	Fix       pvt.FixSummary `json:"fix"`
	Timestamp time.Time      `json:"timestamp"`
}

// Server controls a simulator feeding the pipeline and streams its output
type Server struct {
	cfg     Config
	logger  *log.Logger
	engine  Engine
	handler sim.Handler

	mu         sync.Mutex
	simulator  *sim.Simulator
	lastConfig sim.Config

	upgrader  websocket.Upgrader
	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan Message
}

// NewServer returns a server whose simulators deliver solutions to handler.
// A nil logger discards output.
func NewServer(cfg Config, engine Engine, handler sim.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		cfg:        cfg,
		logger:     logger,
		engine:     engine,
		handler:    handler,
		lastConfig: sim.DefaultConfig(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 16),
	}
}

// Attach hands an already configured simulator to the server so the stop
// endpoint and status view can reach it
func (s *Server) Attach(simulator *sim.Simulator, cfg sim.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulator = simulator
	s.lastConfig = cfg
}

// Publish queues one composed epoch for the websocket clients. It never
// blocks; epochs are dropped while the clients fall behind.
func (s *Server) Publish(out []byte, fix pvt.FixSummary) {
	msg := Message{
		Type: "epoch",
		Data: Epoch{
			Sentences: splitSentences(out),
			Fix:       fix,
			Timestamp: time.Now().UTC(),
		},
	}
	select {
	case s.broadcast <- msg:
	default:
	}
}

func splitSentences(out []byte) []string {
	var sentences []string
	for _, line := range strings.SplitAfter(string(out), "\r\n") {
		if line != "" {
			sentences = append(sentences, line)
		}
	}
	return sentences
}

// Router returns the HTTP routes
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/stop", s.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handleUpdateConfig).Methods(http.MethodPost)
	api.HandleFunc("/ws", s.handleWebSocket)

	r.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if s.cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return r
}

// Run broadcasts published epochs until ctx is done
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return
		case msg := <-s.broadcast:
			s.send(msg)
		}
	}
}

// ListenAndServe serves the routes and broadcasts epochs until ctx is done
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web server listening", "addr", s.cfg.Listen)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) send(msg Message) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for client := range s.clients {
		client.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := client.WriteJSON(msg); err != nil {
			s.logger.Debug("websocket write failed", "err", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	// the status frame goes out before the client joins the broadcast set
	// so it is always the first frame
	if err := conn.WriteJSON(Message{Type: "status", Data: s.status()}); err != nil {
		conn.Close()
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Info("websocket client connected", "clients", n)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	if s.clients[conn] {
		delete(s.clients, conn)
		conn.Close()
	}
	n = len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Info("websocket client disconnected", "clients", n)
}

// Status is the body of GET /api/status
type Status struct {
	Simulator interface{} `json:"simulator"`
	Engine    pvt.Status  `json:"engine"`
}

func (s *Server) status() Status {
	s.mu.Lock()
	simulator := s.simulator
	s.mu.Unlock()

	st := Status{Engine: s.engine.Status()}
	if simulator != nil {
		st.Simulator = simulator.Status()
	} else {
		st.Simulator = map[string]interface{}{
			"running": false,
			"message": "No simulator instance",
		}
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	config := s.lastConfig
	if len(body) > 0 {
		config = parseConfig(body, s.lastConfig)
	}

	if s.simulator != nil && s.simulator.IsRunning() {
		s.logger.Info("stopping running simulator before restart")
		s.simulator.Stop()
	}
	s.simulator = nil

	simulator, err := sim.NewSimulator(config, s.logger.With("component", "sim"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create simulator: %v", err), http.StatusBadRequest)
		return
	}
	if s.handler != nil {
		simulator.AddHandler(s.handler)
	}

	s.engine.Reset()
	if err := simulator.Start(); err != nil {
		http.Error(w, fmt.Sprintf("Failed to start simulator: %v", err), http.StatusInternalServerError)
		return
	}

	s.simulator = simulator
	s.lastConfig = config
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// StopSimulator stops the current simulator, if any, and forgets it
func (s *Server) StopSimulator() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.simulator != nil && s.simulator.IsRunning() {
		if err := s.simulator.Stop(); err != nil {
			return err
		}
	}
	s.simulator = nil
	return nil
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.StopSimulator(); err != nil {
		http.Error(w, fmt.Sprintf("Failed to stop simulator: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	config := parseConfig(body, s.lastConfig)
	if err := config.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid config: %v", err), http.StatusBadRequest)
		return
	}

	if s.simulator != nil && s.simulator.IsRunning() {
		if err := s.simulator.UpdateConfig(config); err != nil {
			http.Error(w, fmt.Sprintf("Failed to update config: %v", err), http.StatusBadRequest)
			return
		}
	}
	s.lastConfig = config
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
