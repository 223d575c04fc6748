package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/joker512/pebble-tracker/internal/codec"
)

// Log writes each message as one JSON frame per line and acknowledges it. It
// stands in for a device when none is attached.
type Log struct {
	W io.Writer
}

func (l *Log) Send(ctx context.Context, msg codec.Message, ack func(), nack func(error)) {
	o := &outcome{ack: ack, nack: nack}
	w := l.W
	if w == nil {
		w = os.Stderr
	}
	go func() {
		if err := ctx.Err(); err != nil {
			o.fail(err)
			return
		}
		b, err := json.Marshal(Frame{Type: FrameAppMessage, ID: uuid.NewString(), Payload: msg})
		if err != nil {
			o.fail(err)
			return
		}
		if _, err := fmt.Fprintln(w, string(b)); err != nil {
			o.fail(err)
			return
		}
		o.succeed()
	}()
}
