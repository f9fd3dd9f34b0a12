package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event names exchanged over the wire.
const (
	EventJoinRoom       = "join-room"
	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
)

var ErrUnknownEvent = errors.New("unknown event")

// Envelope is the outer JSON frame for every event in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRequest binds a connection to a room under a display name.
type JoinRequest struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

// SendRequest asks the relay to fan a message out to a room.
type SendRequest struct {
	RoomCode string  `json:"roomCode"`
	Message  Message `json:"message"`
}

// ClientEvent is the decoded, validated form of an inbound frame. Exactly one
// field is non-nil.
type ClientEvent struct {
	Join *JoinRequest
	Send *SendRequest
}

// NormalizeRoomCode applies the conventional case-normalization to a
// client-supplied room code. Any non-empty string is a valid code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DecodeClientEvent parses an inbound frame into a tagged variant. Frames
// with an unrecognized event name or missing required fields are rejected
// and must produce no state change in the caller.
func DecodeClientEvent(data []byte) (ClientEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ClientEvent{}, fmt.Errorf("decoding envelope: %w", err)
	}

	switch env.Event {
	case EventJoinRoom:
		var req JoinRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return ClientEvent{}, fmt.Errorf("decoding %s: %w", EventJoinRoom, err)
		}
		req.RoomCode = NormalizeRoomCode(req.RoomCode)
		req.Username = strings.TrimSpace(req.Username)
		if req.RoomCode == "" {
			return ClientEvent{}, fmt.Errorf("%s: roomCode is required", EventJoinRoom)
		}
		if req.Username == "" {
			return ClientEvent{}, fmt.Errorf("%s: username is required", EventJoinRoom)
		}
		return ClientEvent{Join: &req}, nil

	case EventSendMessage:
		var req struct {
			RoomCode string   `json:"roomCode"`
			Message  *Message `json:"message"`
		}
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return ClientEvent{}, fmt.Errorf("decoding %s: %w", EventSendMessage, err)
		}
		code := NormalizeRoomCode(req.RoomCode)
		if code == "" {
			return ClientEvent{}, fmt.Errorf("%s: roomCode is required", EventSendMessage)
		}
		if req.Message == nil {
			return ClientEvent{}, fmt.Errorf("%s: message is required", EventSendMessage)
		}
		return ClientEvent{Send: &SendRequest{RoomCode: code, Message: *req.Message}}, nil

	default:
		return ClientEvent{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// EncodeReceiveMessage frames a message for delivery to clients.
func EncodeReceiveMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshaling message: %w", err)
	}
	return json.Marshal(Envelope{Event: EventReceiveMessage, Data: data})
}

// DecodeReceiveMessage parses a server frame back into a message. Used by
// the client session.
func DecodeReceiveMessage(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Event != EventReceiveMessage {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	var msg Message
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return Message{}, fmt.Errorf("decoding %s: %w", EventReceiveMessage, err)
	}
	return msg, nil
}
