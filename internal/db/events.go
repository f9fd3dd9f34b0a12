package db

import (
	"fmt"
	"time"
)

// Relay event kinds recorded in the activity log.
const (
	EventKindJoin    = "join"
	EventKindLeave   = "leave"
	EventKindMessage = "message"
)

// RelayEvent is one row of the activity log. Message text and media URLs are
// deliberately absent: only the fact that a message passed through is kept.
type RelayEvent struct {
	RoomCode   string
	Kind       string
	Sender     string
	HasMedia   bool
	OccurredAt time.Time
}

func (d *DB) RecordEvent(ev RelayEvent) error {
	_, err := d.conn.Exec(`
		INSERT INTO relay_events (room_code, kind, sender, has_media, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.RoomCode, ev.Kind, ev.Sender, ev.HasMedia, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("recording relay event: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordEvents(events []RelayEvent) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO relay_events (room_code, kind, sender, has_media, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.RoomCode, ev.Kind, ev.Sender, ev.HasMedia, ev.OccurredAt); err != nil {
			return fmt.Errorf("recording relay event in batch: %w", err)
		}
	}

	return tx.Commit()
}
