package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"chatrelay/internal/db"
	"chatrelay/internal/metrics"
	"chatrelay/internal/relay"
)

const maxFrameSize = 32 << 10

type Server struct {
	Registry    *relay.Registry
	Broadcaster *relay.Broadcaster
	DB          *db.DB             // nil if no database configured
	Events      chan db.RelayEvent // nil if no database configured
	SendBuffer  int
	origins     *originChecker
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.origins.allow(r) {
		log.Printf("[WS] Blocked connection from disallowed origin %q", r.Header.Get("Origin"))
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin policy is enforced above against the configured allow-list.
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[WS] Accept failed: %v", err)
		return
	}

	s.serveConn(r.Context(), conn)
}

// serveConn runs one connection's lifecycle: admit unjoined, pump events
// until the transport closes, then tear the registration down.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(maxFrameSize)

	id := uuid.New().String()
	client := relay.NewClient(id, conn, s.SendBuffer)
	s.Registry.Admit(client)
	metrics.ConnectionsOpen.Inc()
	log.Printf("[WS] Connection %s admitted", id)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go client.WritePump(ctx)

	defer func() {
		room, name, wasJoined := s.Registry.Remove(id)
		metrics.ConnectionsOpen.Dec()
		s.updateRoomGauge()
		if wasJoined {
			s.recordEvent(db.RelayEvent{
				RoomCode:   room,
				Kind:       db.EventKindLeave,
				Sender:     name,
				OccurredAt: time.Now(),
			})
			s.endSession(id)
		}
		conn.CloseNow()
		log.Printf("[WS] Connection %s closed", id)
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		s.handleFrame(client, data)
	}
}

func (s *Server) handleFrame(client *relay.Client, data []byte) {
	ev, err := relay.DecodeClientEvent(data)
	if err != nil {
		metrics.EventsRejected.Inc()
		log.Printf("[WS] Rejected frame from %s: %v", client.ID, err)
		return
	}

	switch {
	case ev.Join != nil:
		s.handleJoin(client, ev.Join)
	case ev.Send != nil:
		s.handleSend(ev.Send)
	}
}

func (s *Server) handleJoin(client *relay.Client, req *relay.JoinRequest) {
	roster, err := s.Registry.Join(client.ID, req.RoomCode, req.Username)
	if err != nil {
		metrics.EventsRejected.Inc()
		log.Printf("[WS] Join rejected for %s: %v", client.ID, err)
		return
	}
	s.updateRoomGauge()
	log.Printf("[WS] %s joined room %s as %q (roster: %d)", client.ID, req.RoomCode, req.Username, roster)

	s.Broadcaster.NotifySystemJoin(req.RoomCode, req.Username)

	s.recordEvent(db.RelayEvent{
		RoomCode:   req.RoomCode,
		Kind:       db.EventKindJoin,
		Sender:     req.Username,
		OccurredAt: time.Now(),
	})
	s.startSession(client.ID, req.RoomCode, req.Username)
}

func (s *Server) handleSend(req *relay.SendRequest) {
	// No exclusion: the sender's own echo is its delivery confirmation, and
	// clients render a message only once it comes back from the relay.
	s.Broadcaster.Broadcast(req.RoomCode, req.Message, "")

	s.recordEvent(db.RelayEvent{
		RoomCode:   req.RoomCode,
		Kind:       db.EventKindMessage,
		Sender:     req.Message.Sender,
		HasMedia:   req.Message.HasMedia(),
		OccurredAt: time.Now(),
	})
}

func (s *Server) recordEvent(ev db.RelayEvent) {
	if s.Events == nil {
		return
	}
	select {
	case s.Events <- ev:
	default:
		// Buffer full: insert directly instead of losing the event.
		log.Println("[DB] Event buffer full, recording directly")
		if err := s.DB.RecordEvent(ev); err != nil {
			log.Printf("[DB] RecordEvent error: %v", err)
		}
	}
}

func (s *Server) startSession(connectionID, roomCode, name string) {
	if s.DB == nil {
		return
	}
	if err := s.DB.StartSession(connectionID, roomCode, name); err != nil {
		log.Printf("[DB] StartSession error: %v", err)
	}
}

func (s *Server) endSession(connectionID string) {
	if s.DB == nil {
		return
	}
	if err := s.DB.EndSession(connectionID); err != nil {
		log.Printf("[DB] EndSession error: %v", err)
	}
}

func (s *Server) updateRoomGauge() {
	rooms, _ := s.Registry.Counts()
	metrics.RoomsActive.Set(float64(rooms))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	rooms, conns := s.Registry.Counts()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"rooms": rooms, "connections": conns})
}
