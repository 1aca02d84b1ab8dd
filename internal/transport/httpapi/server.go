// Package httpapi exposes the command and room-state endpoints the
// browser UI calls.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/reconcile"
	"fleetmind.ai/internal/sim/session"
	"fleetmind.ai/internal/store"
)

type Server struct {
	session *session.Session
	store   store.Store
	log     *log.Logger
}

func NewServer(s *session.Session, st store.Store, logger *log.Logger) *Server {
	return &Server{session: s, store: st, log: logger}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/command", s.handleCommand).Methods(http.MethodPost)
	r.HandleFunc("/v1/fleet", s.handleFleetGet).Methods(http.MethodGet)
	r.HandleFunc("/v1/fleet", s.handleFleetPost).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

type commandBody struct {
	Command string `json:"command"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var body commandBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Command) == "" {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorResult(protocol.ErrProtoBadRequest, "No command provided."))
		return
	}
	res := s.session.SubmitCommand(r.Context(), body.Command)
	// Planner and validation failures are part of the contract, not
	// transport errors; they ship with a 200.
	writeJSON(w, http.StatusOK, res)
}

// handleFleetGet serves a room's stored state; an unknown room reads
// as an empty fleet rather than a 404.
func (s *Server) handleFleetGet(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	raw, ok, err := s.store.Get(r.Context(), reconcile.RoomKey(room))
	if err != nil || !ok {
		writeJSON(w, http.StatusOK, protocol.RoomState{Robots: []protocol.RobotSnapshot{}})
		return
	}
	var state protocol.RoomState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		writeJSON(w, http.StatusOK, protocol.RoomState{Robots: []protocol.RobotSnapshot{}})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleFleetPost(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	var state protocol.RoomState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	state.Timestamp = time.Now().UnixMilli()
	buf, err := json.Marshal(state)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save state"})
		return
	}
	if err := s.store.Set(r.Context(), reconcile.RoomKey(room), string(buf)); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save state"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
