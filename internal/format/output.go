// Package format renders command results for the CLI.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joker512/pebble-tracker/internal/codec"
)

const (
	JSON = "json"
	EDN  = "edn"
	// Lines prints a message one "key value" pair per line, the way the
	// watch log shows it. Other values fall back to JSON.
	Lines = "lines"
)

// Write writes v in the requested format ("" means json).
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	case Lines:
		if msg, ok := v.(codec.Message); ok {
			return WriteLines(w, msg)
		}
		return WriteJSON(w, v, pretty)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteLines writes the message in ascending key order. String values are quoted.
func WriteLines(w io.Writer, msg codec.Message) error {
	for _, k := range msg.Keys() {
		v := msg[k]
		var err error
		if v.IsInt() {
			_, err = fmt.Fprintf(w, "%d %d\n", k, v.Int())
		} else {
			_, err = fmt.Fprintf(w, "%d %q\n", k, v.Str())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
