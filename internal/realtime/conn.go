package realtime

import (
	"context"
	"net/http"

	gorillawebsocket "github.com/gorilla/websocket"
)

// Conn abstracts the bidirectional connection so the session can be
// exercised against an in-memory transport in tests.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a connection to the realtime endpoint.
type Dialer interface {
	Dial(ctx context.Context, url, token string) (Conn, error)
}

// GorillaDialer dials with gorilla/websocket, passing the bearer token in
// the handshake request headers.
type GorillaDialer struct{}

func (GorillaDialer) Dial(ctx context.Context, url, token string) (Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := gorillawebsocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return &gorillaConn{conn}, nil
}

type gorillaConn struct {
	conn *gorillawebsocket.Conn
}

func (c *gorillaConn) ReadMessage() (int, []byte, error) {
	return c.conn.ReadMessage()
}

func (c *gorillaConn) WriteMessage(messageType int, data []byte) error {
	return c.conn.WriteMessage(messageType, data)
}

func (c *gorillaConn) Close() error {
	return c.conn.Close()
}
