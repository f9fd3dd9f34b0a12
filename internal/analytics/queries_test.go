package analytics

import (
	"os"
	"testing"
	"time"

	"chatrelay/internal/db"
)

func getTestQueries(t *testing.T) *Queries {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := db.Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.Exec("DELETE FROM relay_events")
		database.Exec("DELETE FROM room_sessions")
		database.Close()
	})
	return NewQueries(database)
}

func seedRoom(t *testing.T, q *Queries, room string, joins, messages, withMedia int) {
	t.Helper()
	now := time.Now()
	var events []db.RelayEvent
	for range joins {
		events = append(events, db.RelayEvent{RoomCode: room, Kind: db.EventKindJoin, Sender: "Seeder", OccurredAt: now})
	}
	for i := range messages {
		events = append(events, db.RelayEvent{
			RoomCode:   room,
			Kind:       db.EventKindMessage,
			Sender:     "Seeder",
			HasMedia:   i < withMedia,
			OccurredAt: now,
		})
	}
	if err := q.DB.BatchRecordEvents(events); err != nil {
		t.Fatalf("seeding %s: %v", room, err)
	}
}

func TestTopRooms(t *testing.T) {
	q := getTestQueries(t)

	seedRoom(t, q, "BUSY", 3, 10, 2)
	seedRoom(t, q, "QUIET", 1, 2, 0)

	rooms, err := q.TopRooms(10)
	if err != nil {
		t.Fatalf("TopRooms() error: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("len = %d, want 2", len(rooms))
	}
	if rooms[0].RoomCode != "BUSY" {
		t.Errorf("top room = %q, want BUSY", rooms[0].RoomCode)
	}
	if rooms[0].Messages != 10 || rooms[0].Joins != 3 {
		t.Errorf("BUSY = %+v", rooms[0])
	}
	if rooms[0].MediaShare < 19 || rooms[0].MediaShare > 21 {
		t.Errorf("MediaShare = %f, want ~20", rooms[0].MediaShare)
	}
}

func TestGetRoomSummary(t *testing.T) {
	q := getTestQueries(t)

	seedRoom(t, q, "SUMMARY", 2, 5, 1)
	if err := q.DB.StartSession("conn-1", "SUMMARY", "Alice"); err != nil {
		t.Fatal(err)
	}

	summary, err := q.GetRoomSummary("SUMMARY")
	if err != nil {
		t.Fatalf("GetRoomSummary() error: %v", err)
	}
	if summary.Joins != 2 || summary.Messages != 5 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.UniqueSenders != 1 {
		t.Errorf("UniqueSenders = %d, want 1", summary.UniqueSenders)
	}
	if summary.OpenSessions != 1 {
		t.Errorf("OpenSessions = %d, want 1", summary.OpenSessions)
	}
}
