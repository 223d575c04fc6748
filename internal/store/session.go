package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cast"

	"github.com/joker512/pebble-tracker/internal/model"
)

// Keys under which the last edited session is persisted.
const (
	KeyTree     = "tree"
	KeyTotal    = "total"
	KeyAccTotal = "accTotal"
)

const legacyFileName = "localStorage.json"

// Session is the editable state: the task tree and both hour budgets.
type Session struct {
	Tree     model.Tree     `json:"tree"`
	Settings model.Settings `json:"settings"`

	// Defaulted reports which parts were missing or unreadable and fell back
	// to defaults. Not persisted.
	Defaulted Defaulted `json:"defaulted"`
}

type Defaulted struct {
	Tree     bool `json:"tree,omitempty"`
	Total    bool `json:"total,omitempty"`
	AccTotal bool `json:"accTotal,omitempty"`
}

func (d Defaulted) Any() bool { return d.Tree || d.Total || d.AccTotal }

// DefaultSession is the state of a bridge that has never been configured.
func DefaultSession() Session {
	return Session{
		Tree:      model.DefaultTree(),
		Settings:  model.DefaultSettings(),
		Defaulted: Defaulted{Tree: true, Total: true, AccTotal: true},
	}
}

// LoadSession reads the persisted session. Missing or corrupt values fall back
// to defaults individually; they are never an error.
func (s Store) LoadSession(ctx context.Context) (Session, error) {
	if err := s.importLegacy(ctx); err != nil {
		return Session{}, err
	}

	out := DefaultSession()

	raw, ok, err := s.Get(ctx, KeyTree)
	if err != nil {
		return Session{}, err
	}
	if ok {
		if tree, err := model.ParseTree([]byte(raw)); err == nil {
			tree.Normalize()
			if tree.Validate() == nil {
				out.Tree = tree
				out.Defaulted.Tree = false
			}
		}
	}

	if n, ok, err := s.hours(ctx, KeyTotal); err != nil {
		return Session{}, err
	} else if ok {
		out.Settings.Total = n
		out.Defaulted.Total = false
	}
	if n, ok, err := s.hours(ctx, KeyAccTotal); err != nil {
		return Session{}, err
	} else if ok {
		out.Settings.AccTotal = n
		out.Defaulted.AccTotal = false
	}
	return out, nil
}

func (s Store) hours(ctx context.Context, key string) (int, bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := model.ParseHours(raw)
	if err != nil || n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// SaveSession replaces the tree and both settings in a single transaction.
func (s Store) SaveSession(ctx context.Context, sess Session) error {
	if sess.Tree == nil {
		return errors.New("save session: nil tree")
	}
	b, err := json.Marshal(sess.Tree)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return s.SetMany(ctx, map[string]string{
		KeyTree:     string(b),
		KeyTotal:    strconv.Itoa(sess.Settings.Total),
		KeyAccTotal: strconv.Itoa(sess.Settings.AccTotal),
	})
}

func (s Store) legacyPath() string {
	return filepath.Join(s.Dir, legacyFileName)
}

// importLegacy copies a localStorage export from the phone app into the KV
// table once, when the table is still empty. Values are kept as strings; a
// broken value is handled by LoadSession like any other corrupt entry. An
// unreadable export is the same as no export.
func (s Store) importLegacy(ctx context.Context) error {
	b, err := os.ReadFile(s.legacyPath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logf("skipping %s: %v", legacyFileName, err)
		}
		return nil
	}
	empty, err := s.kvEmpty(ctx)
	if err != nil || !empty {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		s.logf("skipping %s: %v", legacyFileName, err)
		return nil
	}
	entries := map[string]string{}
	for _, k := range []string{KeyTree, KeyTotal, KeyAccTotal} {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if k == KeyTree {
			// The tree may be exported either as a JSON string or inline.
			if _, isStr := v.(string); !isStr {
				enc, err := json.Marshal(v)
				if err != nil {
					continue
				}
				entries[k] = string(enc)
				continue
			}
		}
		str, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		entries[k] = str
	}
	return s.SetMany(ctx, entries)
}
