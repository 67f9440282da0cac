package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WSClient adapts one gorilla connection to the Subscriber interface.
// Writes are serialized; gorilla connections allow one writer at a time.
type WSClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewWSClient(conn *websocket.Conn) *WSClient {
	return &WSClient{conn: conn}
}

func (c *WSClient) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *WSClient) Close() error {
	return c.conn.Close()
}
