package relay

import (
	"errors"
	"sync"

	"github.com/coder/websocket"
)

var (
	// ErrAlreadyJoined is returned when a connection that is already bound
	// to a room issues a second join. The binding is never changed; a client
	// that wants another room must reconnect.
	ErrAlreadyJoined = errors.New("connection already joined a room")

	// ErrUnknownConnection is returned when the connection was never
	// admitted or has already been removed.
	ErrUnknownConnection = errors.New("unknown connection")
)

type binding struct {
	client *Client
	room   string // empty until joined
	name   string
}

// Registry owns every live connection and its room membership. A connection
// belongs to at most one room; rooms exist only as non-empty member sets and
// their map entries are deleted the moment the last member leaves.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*binding
	rooms map[string]map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*binding),
		rooms: make(map[string]map[string]*Client),
	}
}

// Admit registers a new connection with no room binding.
func (r *Registry) Admit(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = &binding{client: c}
}

// Join binds the connection to the given room and returns the updated roster
// size. The display name is fixed for the rest of the connection's lifetime.
func (r *Registry) Join(id, roomCode, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.conns[id]
	if !ok {
		return 0, ErrUnknownConnection
	}
	if b.room != "" {
		return 0, ErrAlreadyJoined
	}

	members, ok := r.rooms[roomCode]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[roomCode] = members
	}
	members[id] = b.client
	b.room = roomCode
	b.name = name

	return len(members), nil
}

// Leave removes the connection from its room, if any. Calling it on an
// unbound or unknown connection is a no-op.
func (r *Registry) Leave(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(id)
}

func (r *Registry) leaveLocked(id string) {
	b, ok := r.conns[id]
	if !ok || b.room == "" {
		return
	}
	members := r.rooms[b.room]
	delete(members, id)
	if len(members) == 0 {
		delete(r.rooms, b.room)
	}
	b.room = ""
}

// Remove tears a connection down on disconnect: it leaves its room, drops
// the registration, and closes the send channel. It returns the room and
// name the connection was bound to, if any. Idempotent.
func (r *Registry) Remove(id string) (room, name string, wasJoined bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.conns[id]
	if !ok {
		return "", "", false
	}
	room, name = b.room, b.name
	r.leaveLocked(id)
	delete(r.conns, id)
	// Safe to close here: all sends to this channel happen under r.mu.
	close(b.client.Send)
	return room, name, room != ""
}

// MembersOf returns the connection IDs currently in the room. An unknown or
// empty room code yields an empty roster, not an error.
func (r *Registry) MembersOf(roomCode string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomCode]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// RoomOf reports the room the connection is currently bound to.
func (r *Registry) RoomOf(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.conns[id]
	if !ok || b.room == "" {
		return "", false
	}
	return b.room, true
}

// Counts returns the number of live rooms and connections.
func (r *Registry) Counts() (rooms, conns int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms), len(r.conns)
}

// CloseAll closes the transport of every admitted connection. Server
// shutdown does not reach hijacked WebSocket connections, so this is how
// they get told to go away; each read loop observes the close and runs its
// normal teardown. The closes happen outside the lock since they do I/O.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.conns))
	for _, b := range r.conns {
		clients = append(clients, b.client)
	}
	r.mu.Unlock()

	for _, c := range clients {
		if c.Conn != nil {
			c.Conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// forEachMember runs fn for every member of the room while holding the
// registry lock, so a fan-out never observes a roster mid-mutation and
// never races a channel close in Remove. fn must not block.
func (r *Registry) forEachMember(roomCode string, fn func(*Client)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rooms[roomCode] {
		fn(c)
	}
}
