package db

import (
	"fmt"
	"time"
)

type RoomSession struct {
	ID           string
	ConnectionID string
	RoomCode     string
	DisplayName  string
	JoinedAt     time.Time
	LeftAt       *time.Time
}

// StartSession records a connection joining a room.
func (d *DB) StartSession(connectionID, roomCode, displayName string) error {
	_, err := d.conn.Exec(`
		INSERT INTO room_sessions (connection_id, room_code, display_name)
		VALUES ($1, $2, $3)
	`, connectionID, roomCode, displayName)
	if err != nil {
		return fmt.Errorf("starting room session: %w", err)
	}
	return nil
}

// EndSession stamps the open session for the connection, if one exists.
func (d *DB) EndSession(connectionID string) error {
	_, err := d.conn.Exec(`
		UPDATE room_sessions SET left_at = now()
		WHERE connection_id = $1 AND left_at IS NULL
	`, connectionID)
	if err != nil {
		return fmt.Errorf("ending room session: %w", err)
	}
	return nil
}
