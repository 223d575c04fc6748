package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joker512/pebble-tracker/internal/codec"
	"github.com/joker512/pebble-tracker/internal/model"
)

type result struct {
	acked bool
	err   error
}

// await sends msg on ch and blocks until a callback fires.
func await(t *testing.T, ch Channel, msg codec.Message) result {
	t.Helper()
	done := make(chan result, 2)
	ch.Send(context.Background(), msg,
		func() { done <- result{acked: true} },
		func(err error) { done <- result{err: err} },
	)
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatalf("no callback fired")
		return result{}
	}
}

func defaultMessage(t *testing.T) codec.Message {
	t.Helper()
	msg, err := codec.Encode(model.DefaultTree(), model.DefaultSettings())
	require.NoError(t, err)
	return msg
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestLogChannelWritesFrameAndAcks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := await(t, &Log{W: &buf}, defaultMessage(t))
	require.True(t, r.acked)

	var f Frame
	require.NoError(t, json.Unmarshal(buf.Bytes(), &f))
	assert.Equal(t, FrameAppMessage, f.Type)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "main", f.Payload[2].Str())
}

func TestLogChannelCancelledContextNacks(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	(&Log{W: &bytes.Buffer{}}).Send(ctx, codec.Message{}, func() { done <- nil }, func(err error) { done <- err })
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWebsocketAckFromGateway(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		got []Delivery
	)
	gw := &Gateway{OnDelivery: func(d Delivery) {
		mu.Lock()
		got = append(got, d)
		mu.Unlock()
	}}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	r := await(t, &Websocket{URL: wsURL(srv), Timeout: 2 * time.Second}, defaultMessage(t))
	require.True(t, r.acked, "expected ack, got %v", r.err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.NoError(t, got[0].Err)
	assert.Equal(t, model.DefaultTree(), got[0].Tree)
	assert.Equal(t, model.DefaultSettings(), got[0].Decoded.Settings)

	last, ok := gw.Last()
	require.True(t, ok)
	assert.Equal(t, got[0].ID, last.ID)
}

func TestWebsocketNackOnUndecodableMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(&Gateway{})
	defer srv.Close()

	r := await(t, &Websocket{URL: wsURL(srv), Timeout: 2 * time.Second}, codec.Message{10: codec.StringValue("x"), 20: codec.IntValue(1)})
	require.False(t, r.acked)

	var rejected *RejectedError
	require.True(t, errors.As(r.err, &rejected))
	assert.Contains(t, rejected.Reason, codec.ErrNoSettings.Error())
}

func TestWebsocketNackFromRejectHook(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(&Gateway{Reject: func(Delivery) string { return "device busy" }})
	defer srv.Close()

	r := await(t, &Websocket{URL: wsURL(srv), Timeout: 2 * time.Second}, defaultMessage(t))
	var rejected *RejectedError
	require.True(t, errors.As(r.err, &rejected))
	assert.Equal(t, "device busy", rejected.Reason)
}

func TestWebsocketTimeoutNacks(t *testing.T) {
	t.Parallel()

	// A gateway that reads but never answers.
	silent := httptest.NewServer(websocketHandler(func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer silent.Close()

	r := await(t, &Websocket{URL: wsURL(silent), Timeout: 100 * time.Millisecond}, defaultMessage(t))
	require.False(t, r.acked)
	assert.ErrorIs(t, r.err, context.DeadlineExceeded)
}

func TestWebsocketDialFailureNacks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(nil)
	url := wsURL(srv)
	srv.Close()

	r := await(t, &Websocket{URL: url, Timeout: time.Second}, defaultMessage(t))
	require.False(t, r.acked)
	assert.Error(t, r.err)
}

func TestNew(t *testing.T) {
	t.Parallel()

	ch, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Log{}, ch)

	ch, err = New(Config{Kind: "WebSocket", URL: "ws://x", Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &Websocket{}, ch)

	_, err = New(Config{Kind: "websocket"})
	assert.Error(t, err)
	_, err = New(Config{Kind: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestOutcomeFiresOnce(t *testing.T) {
	t.Parallel()

	acks, nacks := 0, 0
	o := &outcome{ack: func() { acks++ }, nack: func(error) { nacks++ }}
	o.succeed()
	o.fail(errors.New("late"))
	o.succeed()
	assert.Equal(t, 1, acks)
	assert.Equal(t, 0, nacks)
}
