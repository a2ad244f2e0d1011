package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pellmark/skein/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// Client is one websocket connection. The read pump is the only
// goroutine that handles inbound events; the write pump is the only
// goroutine that touches the connection for writes.
type Client struct {
	id   string
	hub  *Hub
	svc  *Service
	conn *websocket.Conn
	log  *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once

	// room is the client's current room, guarded by hub.mu.
	room string
}

func newClient(hub *Hub, svc *Service, conn *websocket.Conn, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()[:8]
	return &Client{
		id:   id,
		hub:  hub,
		svc:  svc,
		conn: conn,
		log:  log.With("component", "client", "client", id),
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue offers a message to the client's outbound buffer. It reports
// false when the buffer is full or the client is shutting down.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c)
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read failed", "error", err)
			}
			return
		}
		c.handleMessage(context.Background(), raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"))
			return
		}
	}
}

// handleMessage dispatches one inbound event. Errors go back to the
// sender only; successful submits fan out to the whole room.
func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.enqueue(errorMessage("malformed message"))
		return
	}
	if err := msg.Validate(); err != nil {
		c.enqueue(errorMessage(err.Error()))
		return
	}

	switch msg.Event {
	case EventJoin:
		// Resolve the subject before taking a seat in the room, so an
		// unknown subject never creates a ghost room.
		view, err := c.svc.JoinView(ctx, msg.SubjectID)
		if err != nil {
			c.enqueue(errorMessage(joinError(err)))
			return
		}
		c.hub.Join(msg.Room, c)
		c.enqueue(updateMessage(view))
	case EventSubmit:
		view, err := c.svc.Submit(ctx, msg.SubjectID, msg.SentenceID)
		if err != nil {
			c.enqueue(errorMessage(submitError(err)))
			return
		}
		c.hub.Broadcast(msg.Room, updateMessage(view))
	}
}

func joinError(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return "unknown subject"
	}
	return "could not load story"
}

func submitError(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "unknown subject"
	case errors.Is(err, store.ErrConstraint):
		return "sentence does not belong to this subject"
	default:
		return "could not record your pick"
	}
}
