package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"chatrelay/internal/analytics"
	"chatrelay/internal/relay"
)

func (s *Server) handleTopRooms(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "Analytics requires a database connection", http.StatusServiceUnavailable)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	q := analytics.NewQueries(s.DB)
	rooms, err := q.TopRooms(limit)
	if err != nil {
		log.Printf("[Analytics] TopRooms error: %v", err)
		http.Error(w, "Error querying room activity", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

func (s *Server) handleRoomSummary(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "Analytics requires a database connection", http.StatusServiceUnavailable)
		return
	}

	code := relay.NormalizeRoomCode(r.PathValue("code"))
	if code == "" {
		http.Error(w, "Room code required", http.StatusBadRequest)
		return
	}

	q := analytics.NewQueries(s.DB)
	summary, err := q.GetRoomSummary(code)
	if err != nil {
		log.Printf("[Analytics] GetRoomSummary error: %v", err)
		http.Error(w, "Error querying room summary", http.StatusInternalServerError)
		return
	}
	if summary.Joins == 0 && summary.Messages == 0 {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
