// Package bridge reacts to the two events of a configuration session: the
// watch asking to show the editor, and the editor closing with a response.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/joker512/pebble-tracker/internal/channel"
	"github.com/joker512/pebble-tracker/internal/codec"
	"github.com/joker512/pebble-tracker/internal/model"
	"github.com/joker512/pebble-tracker/internal/store"
)

// SessionStore is the persistence the bridge needs; store.Store satisfies it.
type SessionStore interface {
	LoadSession(ctx context.Context) (store.Session, error)
	SaveSession(ctx context.Context, sess store.Session) error
	RecordSend(ctx context.Context, msg any) (store.SendRecord, error)
	MarkSend(ctx context.Context, id string, status store.SendStatus, reason string) error
}

type Options struct {
	Store     SessionStore
	Channel   channel.Channel
	EditorURL string
	Logger    *log.Logger
}

type Bridge struct {
	store     SessionStore
	channel   channel.Channel
	editorURL string
	logger    *log.Logger

	// One configuration session at a time.
	mu sync.Mutex
}

func New(opts Options) (*Bridge, error) {
	if opts.Store == nil {
		return nil, errors.New("bridge: missing store")
	}
	if opts.Channel == nil {
		return nil, errors.New("bridge: missing channel")
	}
	if strings.TrimSpace(opts.EditorURL) == "" {
		opts.EditorURL = store.DefaultEditorURL
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Bridge{
		store:     opts.Store,
		channel:   opts.Channel,
		editorURL: opts.EditorURL,
		logger:    opts.Logger,
	}, nil
}

// ShowConfiguration returns the editor URL for the stored session, or for the
// defaults when nothing usable is stored.
func (b *Bridge) ShowConfiguration(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sess, err := b.store.LoadSession(ctx)
	if err != nil {
		return "", fmt.Errorf("show configuration: %w", err)
	}
	if sess.Defaulted.Any() {
		b.logger.Printf("using defaults for %s", defaultedList(sess.Defaulted))
	}
	u, err := ConfigurationURL(b.editorURL, sess.Tree, sess.Settings)
	if err != nil {
		return "", fmt.Errorf("show configuration: %w", err)
	}
	b.logger.Printf("configuration url = %s", u)
	return u, nil
}

func defaultedList(d store.Defaulted) string {
	var parts []string
	if d.Tree {
		parts = append(parts, store.KeyTree)
	}
	if d.Total {
		parts = append(parts, store.KeyTotal)
	}
	if d.AccTotal {
		parts = append(parts, store.KeyAccTotal)
	}
	return strings.Join(parts, ", ")
}

// Outcome is the terminal result of one transmission.
type Outcome struct {
	Acked bool
	Err   error
}

type Result struct {
	// Changed is false when the editor closed without a response.
	Changed  bool
	Tree     model.Tree
	Settings model.Settings
	Message  codec.Message
	SendID   string

	// Settled receives exactly one Outcome once the channel calls back.
	// Nil when nothing was sent.
	Settled <-chan Outcome
}

// WebviewClosed handles the editor's close event. An empty response changes
// nothing. Otherwise the response is parsed, persisted, encoded and handed to
// the channel. Persisting happens before encoding, so a tree that parses but
// exceeds the message capacity is stored yet never sent. A rejected send is
// logged and recorded; it is neither retried nor rolled back.
func (b *Bridge) WebviewClosed(ctx context.Context, response string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if strings.TrimSpace(response) == "" {
		b.logger.Printf("got no changes")
		return Result{}, nil
	}

	tree, settings, hasSettings, err := parseResponse(response)
	if err != nil {
		return Result{}, err
	}
	if !hasSettings {
		prev, err := b.store.LoadSession(ctx)
		if err != nil {
			return Result{}, err
		}
		settings = prev.Settings
	}

	res := Result{Changed: true, Tree: tree, Settings: settings}
	if err := b.store.SaveSession(ctx, store.Session{Tree: tree, Settings: settings}); err != nil {
		return res, fmt.Errorf("persist: %w", err)
	}
	b.logger.Printf("saved tree (%d roots), total=%d accTotal=%d", len(tree), settings.Total, settings.AccTotal)

	msg, err := codec.Encode(tree, settings)
	if err != nil {
		return res, fmt.Errorf("encode: %w", err)
	}
	res.Message = msg

	if rec, err := b.store.RecordSend(ctx, msg); err != nil {
		b.logger.Printf("send log: %v", err)
	} else {
		res.SendID = rec.ID
	}

	settled := make(chan Outcome, 1)
	res.Settled = settled
	id := res.SendID
	// The send outlives the event that triggered it.
	b.channel.Send(context.WithoutCancel(ctx), msg,
		func() {
			b.logger.Printf("tree sent to watch successfully")
			b.mark(id, store.SendAcked, "")
			settled <- Outcome{Acked: true}
		},
		func(err error) {
			b.logger.Printf("tree not sent to watch: %v", err)
			reason := ""
			if err != nil {
				reason = err.Error()
			}
			b.mark(id, store.SendRejected, reason)
			settled <- Outcome{Err: err}
		},
	)
	return res, nil
}

// mark runs on the channel's goroutine, after the request context may be gone.
func (b *Bridge) mark(id string, status store.SendStatus, reason string) {
	if id == "" {
		return
	}
	if err := b.store.MarkSend(context.Background(), id, status, reason); err != nil {
		b.logger.Printf("send log: %v", err)
	}
}

// HandleClosed is WebviewClosed at an event boundary: failures are logged,
// never returned or propagated as panics.
func (b *Bridge) HandleClosed(ctx context.Context, response string) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Printf("webview closed: panic: %v", rec)
		}
	}()
	if _, err := b.WebviewClosed(ctx, response); err != nil {
		b.logger.Printf("webview closed: %v", err)
	}
}
