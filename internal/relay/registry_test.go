package relay

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func newTestClient(id string) *Client {
	return &Client{ID: id, Send: make(chan []byte, 16)}
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func TestJoinGrowsRoster(t *testing.T) {
	reg := NewRegistry()

	c1 := newTestClient("c1")
	c2 := newTestClient("c2")
	reg.Admit(c1)
	reg.Admit(c2)

	n, err := reg.Join("c1", "ABC123", "Alice")
	if err != nil {
		t.Fatalf("Join c1: %v", err)
	}
	if n != 1 {
		t.Errorf("roster after first join = %d, want 1", n)
	}

	n, err = reg.Join("c2", "ABC123", "Bob")
	if err != nil {
		t.Fatalf("Join c2: %v", err)
	}
	if n != 2 {
		t.Errorf("roster after second join = %d, want 2", n)
	}

	members := idSet(reg.MembersOf("ABC123"))
	if len(members) != 2 || !members["c1"] || !members["c2"] {
		t.Errorf("MembersOf = %v, want {c1, c2}", members)
	}
}

func TestJoinUnknownConnection(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Join("ghost", "ABC123", "Alice")
	if !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("err = %v, want ErrUnknownConnection", err)
	}
}

func TestDuplicateJoinRejected(t *testing.T) {
	reg := NewRegistry()
	reg.Admit(newTestClient("c1"))

	if _, err := reg.Join("c1", "ABC123", "Alice"); err != nil {
		t.Fatalf("first join: %v", err)
	}

	_, err := reg.Join("c1", "XYZ789", "Alice")
	if !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("err = %v, want ErrAlreadyJoined", err)
	}

	// The original binding must be untouched.
	if got := reg.MembersOf("ABC123"); len(got) != 1 {
		t.Errorf("original room roster = %v, want one member", got)
	}
	if got := reg.MembersOf("XYZ789"); len(got) != 0 {
		t.Errorf("second room roster = %v, want empty", got)
	}
}

func TestLeaveIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Admit(newTestClient("c1"))

	// Unbound leave is a no-op, not an error.
	reg.Leave("c1")
	// Unknown connection too.
	reg.Leave("ghost")

	if _, err := reg.Join("c1", "ABC123", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	reg.Leave("c1")
	reg.Leave("c1")

	if got := reg.MembersOf("ABC123"); len(got) != 0 {
		t.Errorf("roster after leave = %v, want empty", got)
	}
}

func TestEmptyRoomIsDeleted(t *testing.T) {
	reg := NewRegistry()
	reg.Admit(newTestClient("c1"))

	if _, err := reg.Join("c1", "ABC123", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	rooms, _ := reg.Counts()
	if rooms != 1 {
		t.Fatalf("rooms = %d, want 1", rooms)
	}

	reg.Leave("c1")

	rooms, conns := reg.Counts()
	if rooms != 0 {
		t.Errorf("rooms after leave = %d, want 0 (no leaked empty-set entry)", rooms)
	}
	if conns != 1 {
		t.Errorf("connections after leave = %d, want 1 (still admitted)", conns)
	}
}

func TestRemoveTearsDownConnection(t *testing.T) {
	reg := NewRegistry()
	c := newTestClient("c1")
	reg.Admit(c)

	if _, err := reg.Join("c1", "ABC123", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	room, name, wasJoined := reg.Remove("c1")
	if !wasJoined || room != "ABC123" || name != "Alice" {
		t.Errorf("Remove = (%q, %q, %v), want (ABC123, Alice, true)", room, name, wasJoined)
	}

	if _, ok := <-c.Send; ok {
		t.Error("send channel should be closed after Remove")
	}
	rooms, conns := reg.Counts()
	if rooms != 0 || conns != 0 {
		t.Errorf("Counts = (%d, %d), want (0, 0)", rooms, conns)
	}

	// Second remove is a no-op.
	if _, _, wasJoined := reg.Remove("c1"); wasJoined {
		t.Error("second Remove should report not joined")
	}
}

func TestRoomIsolation(t *testing.T) {
	reg := NewRegistry()
	reg.Admit(newTestClient("c1"))
	reg.Admit(newTestClient("c2"))

	if _, err := reg.Join("c1", "ROOMA", "Alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Join("c2", "ROOMB", "Bob"); err != nil {
		t.Fatal(err)
	}

	a := idSet(reg.MembersOf("ROOMA"))
	b := idSet(reg.MembersOf("ROOMB"))
	if !a["c1"] || a["c2"] {
		t.Errorf("ROOMA members = %v, want exactly {c1}", a)
	}
	if !b["c2"] || b["c1"] {
		t.Errorf("ROOMB members = %v, want exactly {c2}", b)
	}
}

func TestMembersOfUnknownRoom(t *testing.T) {
	reg := NewRegistry()

	if got := reg.MembersOf("NOSUCH"); len(got) != 0 {
		t.Errorf("MembersOf unknown room = %v, want empty", got)
	}
}

func TestRoomOf(t *testing.T) {
	reg := NewRegistry()
	reg.Admit(newTestClient("c1"))

	if _, ok := reg.RoomOf("c1"); ok {
		t.Error("RoomOf before join should report unbound")
	}
	if _, err := reg.Join("c1", "ABC123", "Alice"); err != nil {
		t.Fatal(err)
	}
	room, ok := reg.RoomOf("c1")
	if !ok || room != "ABC123" {
		t.Errorf("RoomOf = (%q, %v), want (ABC123, true)", room, ok)
	}
}

// Churns membership while broadcasts are in flight on the same room. A send
// racing the channel close in Remove would panic, and the race detector
// flags any unguarded roster access.
func TestConcurrentMembershipAndFanOut(t *testing.T) {
	reg := NewRegistry()
	b := NewBroadcaster(reg)

	const workers = 8
	const rounds = 200

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range rounds {
				id := fmt.Sprintf("c%d-%d", w, i)
				reg.Admit(&Client{ID: id, Send: make(chan []byte, 1)})
				if _, err := reg.Join(id, "BUSY01", "user"); err != nil {
					t.Errorf("Join %s: %v", id, err)
					return
				}
				b.Broadcast("BUSY01", Message{Text: "hello", Sender: "user"}, "")
				if i%2 == 0 {
					reg.Leave(id)
				}
				reg.Remove(id)
			}
		}(w)
	}
	wg.Wait()

	rooms, conns := reg.Counts()
	if rooms != 0 || conns != 0 {
		t.Errorf("after teardown rooms = %d, conns = %d, want 0, 0", rooms, conns)
	}
}
