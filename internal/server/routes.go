package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatrelay/internal/config"
	"chatrelay/internal/db"
	"chatrelay/internal/relay"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	cfg := config.Load()

	srv := NewServer(cfg)

	// Optional database connection
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			srv.Events = make(chan db.RelayEvent, 1024)
			go eventBatchWriter(database, srv.Events)
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	addr := "0.0.0.0:" + cfg.Port
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Shutdown never touches hijacked connections, so close the live
	// clients through the registry first.
	srv.Registry.CloseAll()
	return httpSrv.Shutdown(shutdownCtx)
}

// NewServer wires the relay core for the given configuration. Database
// setup stays in Run; the zero DB means the server runs without persistence.
func NewServer(cfg config.Config) *Server {
	registry := relay.NewRegistry()
	return &Server{
		Registry:    registry,
		Broadcaster: relay.NewBroadcaster(registry),
		SendBuffer:  cfg.SendBuffer,
		origins:     newOriginChecker(cfg.AllowedOrigins),
	}
}

// Routes assembles the HTTP surface. Split out of Run so tests can mount the
// same mux on an httptest server.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/analytics/rooms", s.handleTopRooms)
	mux.HandleFunc("/analytics/rooms/{code}", s.handleRoomSummary)
	return mux
}

// eventBatchWriter drains the event buffer into the activity log, flushing
// either on size or on the tick.
func eventBatchWriter(database *db.DB, buffer chan db.RelayEvent) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	batch := make([]db.RelayEvent, 0, 50)

	for {
		select {
		case ev := <-buffer:
			batch = append(batch, ev)
			if len(batch) >= 50 {
				if err := database.BatchRecordEvents(batch); err != nil {
					log.Printf("[DB] BatchRecordEvents error: %v\n", err)
				}
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				if err := database.BatchRecordEvents(batch); err != nil {
					log.Printf("[DB] BatchRecordEvents error: %v\n", err)
				}
				batch = batch[:0]
			}
		}
	}
}
