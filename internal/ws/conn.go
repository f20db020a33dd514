package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/DoyleJ11/wordbattle-backend/internal/types"
)

// conn is the hub and session facing side of one websocket. Sends never
// block: a client whose buffer is full is disconnected.
type conn struct {
	out    chan types.ServerMessage
	closed chan struct{}
	once   sync.Once

	// Set once, before closed is closed. Zero means the socket ended on
	// its own and needs no close frame from us.
	status websocket.StatusCode
	reason string
}

func newConn(buffer int) *conn {
	return &conn{
		out:    make(chan types.ServerMessage, buffer),
		closed: make(chan struct{}),
	}
}

func (c *conn) Send(m types.ServerMessage) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.out <- m:
		return true
	default:
		// Client is slow/full - drop them.
		c.shut(websocket.StatusTryAgainLater, "client too slow")
		return false
	}
}

// Close ends a connection that a newer one for the same user replaced.
func (c *conn) Close() {
	c.shut(websocket.StatusPolicyViolation, "replaced by a newer connection")
}

func (c *conn) shut(status websocket.StatusCode, reason string) {
	c.once.Do(func() {
		c.status = status
		c.reason = reason
		close(c.closed)
	})
}

// writeLoop drains the outbox onto the socket until the conn is closed.
func (c *conn) writeLoop(ctx context.Context, ws *websocket.Conn, timeout time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-c.closed:
			if c.status != 0 {
				// Also unblocks the reader loop.
				_ = ws.Close(c.status, c.reason)
			}
			return

		case m := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, timeout)
			err := wsjson.Write(wctx, ws, m)
			cancel()
			if err != nil {
				c.shut(0, "")
				return
			}
		}
	}
}
