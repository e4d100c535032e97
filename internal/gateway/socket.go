package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Socket is the minimal transport surface the manager needs. Production
// sockets are websockets; tests substitute in-memory fakes.
type Socket interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a Socket to an endpoint.
type Dialer interface {
	Dial(url string, header http.Header) (Socket, error)
}

type wsDialer struct{}

func (d *wsDialer) Dial(url string, header http.Header) (Socket, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	c, resp, err := dialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsSocket{c: c}, nil
}

type wsSocket struct {
	c *websocket.Conn
}

func (s *wsSocket) ReadMessage() ([]byte, error) {
	_, data, err := s.c.ReadMessage()
	return data, err
}

func (s *wsSocket) WriteMessage(data []byte) error {
	return s.c.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSocket) Close() error {
	return s.c.Close()
}

// isServerClose reports whether the read error was a deliberate close frame
// from the peer, as opposed to the link failing.
func isServerClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseServiceRestart)
}
