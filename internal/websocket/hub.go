package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"kanban-board/internal/models"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ErrHubClosed is returned by calls made after Shutdown.
var ErrHubClosed = errors.New("hub is not running")

const (
	// sendBuffer frames may wait per client; a client that falls further behind is dropped.
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

// Conn is the part of a websocket connection the hub uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// AccessChecker decides whether a user may join a board's room.
type AccessChecker interface {
	HasAccess(ctx context.Context, boardID, userID string) (bool, error)
}

// AccessFunc adapts a plain function to AccessChecker.
type AccessFunc func(ctx context.Context, boardID, userID string) (bool, error)

func (f AccessFunc) HasAccess(ctx context.Context, boardID, userID string) (bool, error) {
	return f(ctx, boardID, userID)
}

// Client is one authenticated connection. Room frames are queued on send and
// written by the client's own writer goroutine.
type Client struct {
	UserID string
	conn   Conn
	send   chan []byte
	mu     sync.Mutex
}

// NewClient wraps an upgraded connection for the given user.
func NewClient(userID string, conn Conn) *Client {
	return &Client{UserID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

func (c *Client) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.conn.(writeDeadliner); ok {
		if err := d.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

type membership struct {
	client *Client
	room   string
	done   chan struct{}
}

type delivery struct {
	room  string
	frame []byte
}

// Hub owns the room registry. All registry changes happen on the run goroutine.
type Hub struct {
	access AccessChecker
	log    *zap.Logger

	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	broadcast  chan delivery
	sizes      chan chan map[string]int

	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewHub builds a stopped hub; call Init to start it.
func NewHub(access AccessChecker, log *zap.Logger) *Hub {
	return &Hub{
		access:     access,
		log:        log.Named("hub"),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		broadcast:  make(chan delivery),
		sizes:      make(chan chan map[string]int),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Init starts the hub loop. Calling it again has no effect.
func (h *Hub) Init() {
	h.startOnce.Do(func() { go h.run() })
}

// Shutdown stops the loop and closes every connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.quit) })
	h.startOnce.Do(func() { close(h.done) })
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case m := <-h.join:
			if _, ok := h.clients[m.client]; ok {
				if h.rooms[m.room] == nil {
					h.rooms[m.room] = make(map[*Client]struct{})
				}
				h.rooms[m.room][m.client] = struct{}{}
			}
			close(m.done)
		case m := <-h.leave:
			h.removeFromRoom(m.client, m.room)
			close(m.done)
		case d := <-h.broadcast:
			for client := range h.rooms[d.room] {
				select {
				case client.send <- d.frame:
				default:
					h.log.Warn("send queue full, dropping client", zap.String("user_id", client.UserID))
					h.drop(client)
				}
			}
		case reply := <-h.sizes:
			out := make(map[string]int, len(h.rooms))
			for room, members := range h.rooms {
				out[room] = len(members)
			}
			reply <- out
		case <-h.quit:
			for client := range h.clients {
				_ = client.conn.Close()
				close(client.send)
			}
			h.clients = map[*Client]struct{}{}
			h.rooms = map[string]map[*Client]struct{}{}
			return
		}
	}
}

func (h *Hub) removeFromRoom(client *Client, room string) {
	members := h.rooms[room]
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for room := range h.rooms {
		h.removeFromRoom(client, room)
	}
	_ = client.conn.Close()
	close(client.send)
}

// writeLoop drains the client's queue until the hub drops it. A failed write
// asks the hub to drop the client.
func (h *Hub) writeLoop(client *Client) {
	for frame := range client.send {
		if err := client.write(frame); err != nil {
			h.log.Warn("write failed, dropping client", zap.String("user_id", client.UserID), zap.Error(err))
			select {
			case h.unregister <- client:
			case <-h.quit:
			}
			return
		}
	}
}

func (h *Hub) submit(ch chan membership, client *Client, room string) error {
	m := membership{client: client, room: room, done: make(chan struct{})}
	select {
	case ch <- m:
	case <-h.quit:
		return ErrHubClosed
	}
	<-m.done
	return nil
}

// Join adds the client to the board's room after re-checking access.
func (h *Hub) Join(ctx context.Context, client *Client, boardID string) error {
	ok, err := h.access.HasAccess(ctx, boardID, client.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return errUnauthorizedRoom
	}
	return h.submit(h.join, client, models.RoomName(boardID))
}

// Leave removes the client from the board's room.
func (h *Hub) Leave(client *Client, boardID string) error {
	return h.submit(h.leave, client, models.RoomName(boardID))
}

var errUnauthorizedRoom = errors.New("room access denied")

// Serve registers the client and handles its join and leave messages until the
// connection fails or the hub stops.
func (h *Hub) Serve(ctx context.Context, client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		_ = client.conn.Close()
		return
	}
	go h.writeLoop(client)
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.quit:
		}
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg models.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(client, "Malformed message")
			continue
		}
		var boardID string
		if err := json.Unmarshal(msg.Data, &boardID); err != nil || boardID == "" {
			h.reply(client, "Board id is required")
			continue
		}

		switch msg.Event {
		case models.EventJoinBoard:
			err = h.Join(ctx, client, boardID)
		case models.EventLeaveBoard:
			err = h.Leave(client, boardID)
		default:
			h.reply(client, "Unknown event")
			continue
		}
		switch {
		case errors.Is(err, ErrHubClosed):
			return
		case errors.Is(err, errUnauthorizedRoom):
			h.log.Warn("room join denied", zap.String("user_id", client.UserID), zap.String("board_id", boardID))
			h.reply(client, "Unauthorized access to board")
		case err != nil:
			h.log.Error("room join failed", zap.String("user_id", client.UserID), zap.Error(err))
			h.reply(client, "Failed to join board")
		}
	}
}

func (h *Hub) reply(client *Client, message string) {
	frame, err := Encode(models.EventError, map[string]string{"message": message})
	if err != nil {
		return
	}
	if err := client.write(frame); err != nil {
		h.log.Debug("error reply failed", zap.Error(err))
	}
}

// Deliver writes an encoded frame to every client in the board's room.
func (h *Hub) Deliver(ctx context.Context, boardID string, frame []byte) error {
	select {
	case h.broadcast <- delivery{room: models.RoomName(boardID), frame: frame}:
		return nil
	case <-h.quit:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Emit encodes the event and delivers it to this process's clients only.
func (h *Hub) Emit(ctx context.Context, boardID, event string, payload any) error {
	frame, err := Encode(event, payload)
	if err != nil {
		return err
	}
	return h.Deliver(ctx, boardID, frame)
}

// RoomSizes reports the number of clients per room.
func (h *Hub) RoomSizes(ctx context.Context) (map[string]int, error) {
	reply := make(chan map[string]int, 1)
	select {
	case h.sizes <- reply:
	case <-h.quit:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-reply, nil
}

// Encode builds a realtime frame.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Message{Event: event, Data: data})
}
