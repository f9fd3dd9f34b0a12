package analytics

import (
	"fmt"

	"chatrelay/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

// TopRooms returns the busiest rooms by message count.
func (q *Queries) TopRooms(limit int) ([]RoomActivity, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := q.DB.Query(`
		SELECT
			room_code,
			COUNT(*) FILTER (WHERE kind = 'join') AS joins,
			COUNT(*) FILTER (WHERE kind = 'message') AS messages,
			COALESCE(
				COUNT(*) FILTER (WHERE kind = 'message' AND has_media) * 100.0
					/ NULLIF(COUNT(*) FILTER (WHERE kind = 'message'), 0),
				0
			)::float8 AS media_share,
			MAX(occurred_at) AS last_active
		FROM relay_events
		GROUP BY room_code
		ORDER BY messages DESC, last_active DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top rooms: %w", err)
	}
	defer rows.Close()

	var result []RoomActivity
	for rows.Next() {
		var ra RoomActivity
		if err := rows.Scan(&ra.RoomCode, &ra.Joins, &ra.Messages, &ra.MediaShare, &ra.LastActive); err != nil {
			return nil, fmt.Errorf("scanning room activity: %w", err)
		}
		result = append(result, ra)
	}
	return result, rows.Err()
}

// GetRoomSummary returns the detail view for one room.
func (q *Queries) GetRoomSummary(roomCode string) (*RoomSummary, error) {
	summary := &RoomSummary{}
	summary.RoomCode = roomCode

	err := q.DB.QueryRow(`
		SELECT
			COUNT(*) FILTER (WHERE kind = 'join') AS joins,
			COUNT(*) FILTER (WHERE kind = 'message') AS messages,
			COALESCE(
				COUNT(*) FILTER (WHERE kind = 'message' AND has_media) * 100.0
					/ NULLIF(COUNT(*) FILTER (WHERE kind = 'message'), 0),
				0
			)::float8 AS media_share,
			MAX(occurred_at) AS last_active,
			COUNT(DISTINCT sender) FILTER (WHERE kind = 'message') AS unique_senders
		FROM relay_events
		WHERE room_code = $1
	`, roomCode).Scan(&summary.Joins, &summary.Messages, &summary.MediaShare, &summary.LastActive, &summary.UniqueSenders)
	if err != nil {
		return nil, fmt.Errorf("getting room summary: %w", err)
	}

	err = q.DB.QueryRow(`
		SELECT COUNT(*) FROM room_sessions
		WHERE room_code = $1 AND left_at IS NULL
	`, roomCode).Scan(&summary.OpenSessions)
	if err != nil {
		return nil, fmt.Errorf("counting open sessions: %w", err)
	}

	return summary, nil
}
