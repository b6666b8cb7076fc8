package realtime

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Subprotocols offered when dialing a STOMP endpoint over websocket.
var stompSubprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

const closeWriteWait = time.Second

// wsConn adapts a websocket to the byte stream a STOMP client expects.
//
// Reads are concatenated across messages. Writes are buffered until they end a frame (NUL) or
// form a heart-beat (EOLs only), then sent as one text message.
type wsConn struct {
	ws *websocket.Conn

	// r is only touched by the reading goroutine.
	r io.Reader

	wmu  sync.Mutex
	wbuf []byte

	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws, done: make(chan struct{})}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				c.markDone()
				return 0, err
			}
			c.r = r
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.wbuf = append(c.wbuf, p...)
	if !frameComplete(c.wbuf) {
		return len(p), nil
	}
	err := c.ws.WriteMessage(websocket.TextMessage, c.wbuf)
	c.wbuf = c.wbuf[:0]
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close message and closes the socket. Safe to call more than once.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		c.closeErr = c.ws.Close()
		c.markDone()
	})
	return c.closeErr
}

// Done is closed once the read side has failed or the conn was closed.
func (c *wsConn) Done() <-chan struct{} { return c.done }

func (c *wsConn) markDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

func frameComplete(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	if b[len(b)-1] == 0 {
		return true
	}
	return len(bytes.Trim(b, "\r\n")) == 0
}
