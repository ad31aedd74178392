package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/versus-relay/relay/coordinator"
	"github.com/wricardo/versus-relay/relay/room"
	"github.com/wricardo/versus-relay/transport/websocket"
)

// Server represents the REST admin API server.
type Server struct {
	coord     *coordinator.Coordinator
	hub       *websocket.Hub
	router    *mux.Router
	version   string
	startedAt time.Time
}

// NewServer creates a new API server.
func NewServer(coord *coordinator.Coordinator, hub *websocket.Hub, version string) *Server {
	s := &Server{
		coord:     coord,
		hub:       hub,
		router:    mux.NewRouter(),
		version:   version,
		startedAt: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Room observation and administration
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleCloseRoom).Methods("DELETE")

	// Server stats
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	// Liveness
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files (test client page)
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.coord.ListRooms()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"rooms": rooms,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	info, err := s.coord.GetRoom(vars["id"])
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "Room not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleCloseRoom(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.coord.CloseRoom(vars["id"]); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "Room not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// Stats holds the server statistics returned by /api/stats.
type Stats struct {
	Rooms         int     `json:"rooms"`
	Connections   int     `json:"connections"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Stats{
		Rooms:         s.coord.RoomCount(),
		Connections:   s.hub.ConnectionCount(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Version:       s.version,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r)
}
