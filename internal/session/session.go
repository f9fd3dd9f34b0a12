// Package session provides a lifecycle-scoped handle on one relay
// connection. Callers own the Session explicitly; there is no package-level
// connection state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"

	"chatrelay/internal/relay"
)

var ErrAlreadyJoined = errors.New("session already joined a room")

// Session is one client connection to the relay. A session joins at most one
// room; joining another room requires a fresh session.
type Session struct {
	conn *websocket.Conn

	mu   sync.Mutex
	room string
	name string
}

// Dial connects to the relay's /ws endpoint.
func Dial(ctx context.Context, url string) (*Session, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing relay: %w", err)
	}
	return &Session{conn: conn}, nil
}

// Join binds the session to a room under a display name. The room code is
// case-normalized the same way the relay normalizes it.
func (s *Session) Join(ctx context.Context, roomCode, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room != "" {
		return ErrAlreadyJoined
	}
	code := relay.NormalizeRoomCode(roomCode)
	if code == "" {
		return errors.New("room code is required")
	}

	if err := s.writeEvent(ctx, relay.EventJoinRoom, relay.JoinRequest{
		RoomCode: code,
		Username: username,
	}); err != nil {
		return err
	}
	s.room = code
	s.name = username
	return nil
}

// Send relays a message to the joined room. The sender field is filled from
// the name given at join time.
func (s *Session) Send(ctx context.Context, msg relay.Message) error {
	s.mu.Lock()
	room, name := s.room, s.name
	s.mu.Unlock()

	if room == "" {
		return errors.New("session has not joined a room")
	}
	msg.Sender = name
	return s.writeEvent(ctx, relay.EventSendMessage, relay.SendRequest{
		RoomCode: room,
		Message:  msg,
	})
}

// Listen reads incoming messages until the context is done or the connection
// closes, invoking fn for each. It returns the read error that ended the
// loop; a server-initiated close surfaces as a websocket.CloseError.
func (s *Session) Listen(ctx context.Context, fn func(relay.Message)) error {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		msg, err := relay.DecodeReceiveMessage(data)
		if err != nil {
			// Tolerate unknown frames from newer servers.
			continue
		}
		fn(msg)
	}
}

// Receive reads a single incoming message, skipping unknown frames.
func (s *Session) Receive(ctx context.Context) (relay.Message, error) {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return relay.Message{}, err
		}
		msg, err := relay.DecodeReceiveMessage(data)
		if err != nil {
			continue
		}
		return msg, nil
	}
}

// Name returns the display name given at join time.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Room returns the joined room code, empty before Join.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Close ends the session. The relay removes the connection from its room on
// transport close; no explicit leave event exists in the protocol.
func (s *Session) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Session) writeEvent(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", event, err)
	}
	frame, err := json.Marshal(relay.Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	if err := s.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return fmt.Errorf("writing %s: %w", event, err)
	}
	return nil
}
