package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes an EDN rendering of v.
//
// Values go through JSON first so json tags decide the field names. Object
// keys become keywords, except integer keys (message entries), which stay
// integers and sort numerically.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := ednEncoder{pretty: pretty, indent: 2}
	enc.writeAny(&buf, x, 0)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

type ednEncoder struct {
	pretty bool
	indent int
}

func (e ednEncoder) writeAny(buf *bytes.Buffer, v any, level int) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		buf.WriteString(strconv.Quote(t))
	case json.Number:
		buf.WriteString(t.String())
	case []any:
		items := make([]func(), len(t))
		for i, it := range t {
			items[i] = func() { e.writeAny(buf, it, level+1) }
		}
		e.writeColl(buf, '[', ']', items, level)
	case map[string]any:
		keys := ednKeys(t)
		items := make([]func(), len(keys))
		for i, k := range keys {
			items[i] = func() {
				buf.WriteString(ednKey(k))
				buf.WriteByte(' ')
				e.writeAny(buf, t[k], level+1)
			}
		}
		e.writeColl(buf, '{', '}', items, level)
	default:
		buf.WriteString(strconv.Quote(fmt.Sprintf("%v", v)))
	}
}

func (e ednEncoder) writeColl(buf *bytes.Buffer, open, close byte, items []func(), level int) {
	buf.WriteByte(open)
	if len(items) == 0 {
		buf.WriteByte(close)
		return
	}
	if e.pretty {
		buf.WriteByte('\n')
	}
	for i, item := range items {
		if e.pretty {
			buf.WriteString(strings.Repeat(" ", (level+1)*e.indent))
		}
		item()
		if i != len(items)-1 {
			if e.pretty {
				buf.WriteByte('\n')
			} else {
				buf.WriteByte(' ')
			}
		}
	}
	if e.pretty {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(" ", level*e.indent))
	}
	buf.WriteByte(close)
}

// ednKeys sorts integer keys numerically ahead of the rest, which sort lexically.
func ednKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func ednKey(k string) string {
	if _, err := strconv.Atoi(k); err == nil {
		return k
	}
	k = strings.TrimSpace(k)
	return ":" + strings.ReplaceAll(k, " ", "-")
}
