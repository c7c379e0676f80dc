package ws

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

var (
	connEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	connEntropyMu sync.Mutex
)

func newConnID() string {
	connEntropyMu.Lock()
	defer connEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), connEntropy).String()
}

// Client is one participant's side of the bidirectional channel. It
// implements registry.Conn.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   newConnID(),
		conn: conn,
		send: make(chan []byte, 16),
	}
}

func (c *Client) ID() string { return c.id }

// Send marshals and queues one event. Delivery is best effort: a client that
// cannot drain its buffer loses the frame rather than stalling the room.
func (c *Client) Send(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("conn_id", c.id).Msg("marshal outbound event")
		return
	}
	safeSend(c.send, payload)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() { _ = recover() }()
	select {
	case ch <- msg:
	default:
		droppedFramesTotal.Add(1)
	}
}

func safeClose(ch chan []byte) {
	defer func() { _ = recover() }()
	close(ch)
}
