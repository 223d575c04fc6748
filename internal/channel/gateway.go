package channel

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joker512/pebble-tracker/internal/codec"
	"github.com/joker512/pebble-tracker/internal/model"
)

// Delivery is what the simulated watch made of one app message.
type Delivery struct {
	ID       string
	Message  codec.Message
	Decoded  codec.Decoded
	Tree     model.Tree
	Err      error
	Received time.Time
}

// Gateway is an http.Handler that plays the watch side of the Websocket
// channel: it decodes every app message the way the watch app reads it and
// replies with an ack, or a nack when the message cannot be decoded.
type Gateway struct {
	// OnDelivery observes every decoded message. Optional.
	OnDelivery func(Delivery)
	// Reject, when set and returning non-empty, nacks an otherwise valid message.
	Reject func(Delivery) string
	Logger *log.Logger

	mu   sync.Mutex
	last *Delivery
}

var gatewayUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		// Basic same-origin check; the bridge dials without an Origin header.
		host := strings.TrimSpace(r.Host)
		return strings.Contains(origin, "://"+host)
	},
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := gatewayUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		if f.Type != FrameAppMessage {
			g.logf("gateway: ignoring %q frame", f.Type)
			continue
		}

		d := g.deliver(f)
		reply := Frame{Type: FrameAck, ID: f.ID}
		if d.Err != nil {
			reply = Frame{Type: FrameNack, ID: f.ID, Error: d.Err.Error()}
		} else if g.Reject != nil {
			if reason := g.Reject(d); reason != "" {
				reply = Frame{Type: FrameNack, ID: f.ID, Error: reason}
			}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (g *Gateway) deliver(f Frame) Delivery {
	d := Delivery{ID: f.ID, Message: f.Payload, Received: time.Now().UTC()}
	d.Decoded, d.Err = codec.Decode(f.Payload)
	if d.Err == nil {
		d.Tree, d.Err = codec.Rebuild(d.Decoded)
	}
	if d.Err != nil {
		g.logf("gateway: message %s: %v", f.ID, d.Err)
	} else {
		g.logf("gateway: message %s: %d pairs, %d elements, total=%d accTotal=%d",
			f.ID, len(d.Decoded.Pairs), len(d.Decoded.Elements), d.Decoded.Settings.Total, d.Decoded.Settings.AccTotal)
	}

	g.mu.Lock()
	g.last = &d
	g.mu.Unlock()

	if g.OnDelivery != nil {
		g.OnDelivery(d)
	}
	return d
}

// Last returns the most recent delivery, if any.
func (g *Gateway) Last() (Delivery, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return Delivery{}, false
	}
	return *g.last, true
}

func (g *Gateway) logf(format string, args ...any) {
	if g.Logger != nil {
		g.Logger.Printf(format, args...)
	}
}
