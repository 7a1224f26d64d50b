package client

import (
	"errors"

	"github.com/gorilla/websocket"
)

// ErrCleanClose is returned by a transport read when the peer ended the
// connection with a normal closure. The manager does not reconnect after it.
var ErrCleanClose = errors.New("connection closed cleanly")

// Conn is one live connection as the manager sees it.
type Conn interface {
	// ReadMessage blocks for the next frame. It returns ErrCleanClose on a
	// deliberate shutdown by the peer and any other error on an unclean one.
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	// Close performs a clean shutdown so the server releases the room
	// membership deterministically.
	Close() error
}

// Dialer opens live connections. Tests substitute a scripted implementation.
type Dialer interface {
	Dial(url string) (Conn, error)
}

// WebsocketDialer is the production Dialer on gorilla/websocket.
type WebsocketDialer struct{}

// Dial opens a websocket connection to the room server.
func (WebsocketDialer) Dial(url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return nil, ErrCleanClose
		}
		return nil, err
	}
	return data, nil
}

func (c *wsConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "leaving"))
	return c.conn.Close()
}
