// Package channel delivers encoded messages to the watch. Delivery is
// fire-and-forget: Send returns at once and exactly one of the callbacks runs
// later, on the channel's own goroutine.
package channel

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/joker512/pebble-tracker/internal/codec"
)

type Channel interface {
	Send(ctx context.Context, msg codec.Message, ack func(), nack func(error))
}

const (
	KindLog       = "log"
	KindWebsocket = "websocket"
)

type Config struct {
	Kind    string
	URL     string
	Timeout time.Duration

	// LogOutput receives messages for the log channel.
	LogOutput io.Writer
}

// New builds the channel named by cfg.Kind.
func New(cfg Config) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindLog:
		return &Log{W: cfg.LogOutput}, nil
	case KindWebsocket:
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, fmt.Errorf("channel: %s requires a url", KindWebsocket)
		}
		return &Websocket{URL: cfg.URL, Timeout: cfg.Timeout}, nil
	default:
		return nil, fmt.Errorf("channel: unknown kind %q (expected %s|%s)", cfg.Kind, KindLog, KindWebsocket)
	}
}

// RejectedError is the reason passed to nack when the receiver refused a message.
type RejectedError struct {
	ID     string
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return "message " + e.ID + " rejected"
	}
	return "message " + e.ID + " rejected: " + e.Reason
}

// outcome guarantees a single callback per send. Nil callbacks are skipped.
type outcome struct {
	once sync.Once
	ack  func()
	nack func(error)
}

func (o *outcome) succeed() {
	o.once.Do(func() {
		if o.ack != nil {
			o.ack()
		}
	})
}

func (o *outcome) fail(err error) {
	o.once.Do(func() {
		if o.nack != nil {
			o.nack(err)
		}
	})
}
