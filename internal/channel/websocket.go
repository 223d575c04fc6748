package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/joker512/pebble-tracker/internal/codec"
)

const DefaultTimeout = 10 * time.Second

// Websocket sends each message over a fresh connection to a device gateway and
// waits for the matching ack or nack frame. No reply within Timeout is a nack.
type Websocket struct {
	URL     string
	Timeout time.Duration
	Dialer  *websocket.Dialer
}

func (c *Websocket) Send(ctx context.Context, msg codec.Message, ack func(), nack func(error)) {
	o := &outcome{ack: ack, nack: nack}
	go func() {
		if err := c.roundTrip(ctx, msg); err != nil {
			o.fail(err)
			return
		}
		o.succeed()
	}()
}

func (c *Websocket) roundTrip(ctx context.Context, msg codec.Message) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.URL, err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	// Unblock ReadJSON if the caller cancels before the deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	id := uuid.NewString()
	if err := conn.WriteJSON(Frame{Type: FrameAppMessage, ID: id, Payload: msg}); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	for {
		var reply Frame
		if err := conn.ReadJSON(&reply); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("waiting for ack: %w", ctxErr)
			}
			if !time.Now().Before(deadline) {
				return fmt.Errorf("waiting for ack: %w", context.DeadlineExceeded)
			}
			return fmt.Errorf("read reply: %w", err)
		}
		if reply.ID != id {
			continue
		}
		switch reply.Type {
		case FrameAck:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case FrameNack:
			return &RejectedError{ID: id, Reason: reply.Error}
		default:
			return fmt.Errorf("unexpected reply type %q", reply.Type)
		}
	}
}
