package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/tablelobby/backend/internal/auth"
	"github.com/tablelobby/backend/internal/config"
	"github.com/tablelobby/backend/internal/health"
	"github.com/tablelobby/backend/internal/lobby"
)

type Server struct {
	hub     *lobby.Hub
	checker auth.Checker
	probe   *health.Probe

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	apiToken       string
	maxClients     int
	clients        atomic.Int64
}

func NewServer(cfg *config.Config, hub *lobby.Hub, checker auth.Checker, probe *health.Probe) *Server {
	s := &Server{
		hub:            hub,
		checker:        checker,
		probe:          probe,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		apiToken:       cfg.Server.APIToken,
		maxClients:     cfg.Server.MaxClients,
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/lobby_api", s.handleWS)
	mux.HandleFunc("/api/tables", s.handleTables)
	mux.HandleFunc("/api/health", s.handleHealth)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.maxClients > 0 && s.clients.Add(1) > int64(s.maxClients) {
		s.clients.Add(-1)
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.clients.Add(-1)
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("client connected: %s", r.RemoteAddr)
	defer func() {
		s.clients.Add(-1)
		log.Printf("client disconnected: %s", r.RemoteAddr)
	}()

	newSession(conn, s.hub, s.checker).run()
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	tables, version := s.hub.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Tables  []lobby.Table `json:"tables"`
		Version uint64        `json:"version"`
	}{tables, version})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	_, version := s.hub.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Status      string `json:"status"`
		Clients     int64  `json:"clients"`
		Subscribers int    `json:"subscribers"`
		Version     uint64 `json:"version"`
		health.Report
	}{
		Status:      "ok",
		Clients:     s.clients.Load(),
		Subscribers: s.hub.SubscriberCount(),
		Version:     version,
		Report:      s.probe.Report(),
	})
}

// ClientCount reports the number of open WebSocket connections.
func (s *Server) ClientCount() int64 {
	return s.clients.Load()
}

func (s *Server) authorize(r *http.Request) bool {
	if s.apiToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.apiToken {
		return true
	}

	if r.Header.Get("X-Lobby-Token") == s.apiToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.apiToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
