package channel

import "github.com/joker512/pebble-tracker/internal/codec"

const (
	FrameAppMessage = "appmessage"
	FrameAck        = "ack"
	FrameNack       = "nack"
)

// Frame is the JSON text frame exchanged with a device gateway.
type Frame struct {
	Type    string        `json:"type"`
	ID      string        `json:"id"`
	Payload codec.Message `json:"payload,omitempty"`
	Error   string        `json:"error,omitempty"`
}
