package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Value is a single entry of an encoded message: either a string or an int.
type Value struct {
	str   string
	num   int
	isInt bool
}

func StringValue(s string) Value { return Value{str: s} }

func IntValue(n int) Value { return Value{num: n, isInt: true} }

func (v Value) IsInt() bool { return v.isInt }

// Str returns the string payload ("" for ints).
func (v Value) Str() string { return v.str }

// Int returns the int payload (0 for strings).
func (v Value) Int() int { return v.num }

func (v Value) String() string {
	if v.isInt {
		return strconv.Itoa(v.num)
	}
	return v.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isInt {
		return []byte(strconv.Itoa(v.num)), nil
	}
	return json.Marshal(v.str)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("message value must be a string or an integer: %s", b)
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("message value must be a string or an integer: %s", b)
	}
	*v = IntValue(int(i))
	return nil
}

// Message is the flat, integer-keyed mapping handed to the transmission channel.
type Message map[int]Value

// Keys returns the message keys in ascending order.
func (m Message) Keys() []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (m Message) Get(key int) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

// MarshalJSON writes keys in ascending numeric order so repeated encodes of the
// same tree produce identical bytes.
func (m Message) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.Itoa(k))
		buf.WriteString(`":`)
		b, err := m[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = nil
		return nil
	}
	out := make(Message, len(raw))
	for k, v := range raw {
		key, err := strconv.Atoi(k)
		if err != nil || key < 0 {
			return fmt.Errorf("message key must be a non-negative integer: %q", k)
		}
		out[key] = v
	}
	*m = out
	return nil
}
