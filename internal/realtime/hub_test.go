package realtime

import (
	"testing"
)

func newBareClient() *Client {
	return &Client{
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func TestHub_JoinAndLeave(t *testing.T) {
	h := NewHub(nil)
	a := newBareClient()
	b := newBareClient()

	h.Join("cat", a)
	h.Join("cat", b)
	if got := h.RoomSize("cat"); got != 2 {
		t.Errorf("RoomSize = %d, want 2", got)
	}

	h.Leave(a)
	if got := h.RoomSize("cat"); got != 1 {
		t.Errorf("RoomSize after leave = %d, want 1", got)
	}

	h.Leave(b)
	if got := h.RoomSize("cat"); got != 0 {
		t.Errorf("RoomSize after both left = %d, want 0", got)
	}
	if len(h.rooms) != 0 {
		t.Errorf("empty rooms should be removed, have %d", len(h.rooms))
	}
}

func TestHub_JoinMovesBetweenRooms(t *testing.T) {
	h := NewHub(nil)
	c := newBareClient()

	h.Join("cat", c)
	h.Join("dog", c)

	if got := h.RoomSize("cat"); got != 0 {
		t.Errorf("old room size = %d, want 0", got)
	}
	if got := h.RoomSize("dog"); got != 1 {
		t.Errorf("new room size = %d, want 1", got)
	}
	if c.room != "dog" {
		t.Errorf("client room = %q, want dog", c.room)
	}
}

func TestHub_BroadcastReachesWholeRoom(t *testing.T) {
	h := NewHub(nil)
	a := newBareClient()
	b := newBareClient()
	other := newBareClient()

	h.Join("cat", a)
	h.Join("cat", b)
	h.Join("dog", other)

	h.Broadcast("cat", []byte("hello"))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if string(msg) != "hello" {
				t.Errorf("got %q, want hello", msg)
			}
		default:
			t.Error("room member received nothing")
		}
	}
	select {
	case msg := <-other.send:
		t.Errorf("client in another room received %q", msg)
	default:
	}
}

func TestHub_BroadcastDropsSlowClient(t *testing.T) {
	h := NewHub(nil)
	slow := newBareClient()
	h.Join("cat", slow)

	for i := 0; i < sendBuffer; i++ {
		if !slow.enqueue([]byte("backlog")) {
			t.Fatalf("buffer filled early at %d", i)
		}
	}

	h.Broadcast("cat", []byte("one too many"))

	if got := h.RoomSize("cat"); got != 0 {
		t.Errorf("slow client still in room, size = %d", got)
	}
	select {
	case <-slow.done:
	default:
		t.Error("slow client was not shut down")
	}
}
