package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/joker512/pebble-tracker/internal/model"
)

// FormatResponse builds the payload the editor hands back on close: the
// URL-encoded JSON array [tree, total, accTotal].
func FormatResponse(tree model.Tree, s model.Settings) (string, error) {
	b, err := json.Marshal([]any{tree, s.Total, s.AccTotal})
	if err != nil {
		return "", err
	}
	return url.PathEscape(string(b)), nil
}

// ParseResponse decodes an editor response. Hours may be JSON numbers or
// decimal strings. A bare tree array (older editors) is accepted and yields
// default settings.
func ParseResponse(response string) (model.Tree, model.Settings, error) {
	tree, s, _, err := parseResponse(response)
	return tree, s, err
}

func parseResponse(response string) (tree model.Tree, s model.Settings, hasSettings bool, err error) {
	raw := strings.TrimSpace(response)
	// decodeURIComponent semantics: '+' stays a plus.
	if dec, err := url.PathUnescape(raw); err == nil {
		raw = dec
	} else if !json.Valid([]byte(raw)) {
		return nil, s, false, fmt.Errorf("response: %w", err)
	}

	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &parts); err != nil {
		return nil, s, false, fmt.Errorf("response: expected a JSON array: %w", err)
	}

	if len(parts) == 0 || isObject(parts[0]) {
		tree, err := model.ParseTree([]byte(raw))
		if err != nil {
			return nil, s, false, fmt.Errorf("response: %w", err)
		}
		tree.Normalize()
		if err := tree.Validate(); err != nil {
			return nil, s, false, fmt.Errorf("response: %w", err)
		}
		return tree, model.DefaultSettings(), false, nil
	}

	if len(parts) != 3 {
		return nil, s, false, fmt.Errorf("response: expected [tree, total, accTotal], got %d elements", len(parts))
	}
	if tree, err = model.ParseTree(parts[0]); err != nil {
		return nil, s, false, fmt.Errorf("response: %w", err)
	}
	tree.Normalize()
	if err := tree.Validate(); err != nil {
		return nil, s, false, fmt.Errorf("response: %w", err)
	}
	if s.Total, err = hours("total", parts[1]); err != nil {
		return nil, s, false, err
	}
	if s.AccTotal, err = hours("accTotal", parts[2]); err != nil {
		return nil, s, false, err
	}
	if err := s.Validate(); err != nil {
		return nil, model.Settings{}, false, fmt.Errorf("response: %w", err)
	}
	return tree, s, true, nil
}

func isObject(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func hours(field string, b json.RawMessage) (int, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("response: %s: %w", field, err)
	}
	n, err := model.ParseHours(v)
	if err != nil {
		return 0, fmt.Errorf("response: %s: %w", field, err)
	}
	return n, nil
}

// ConfigurationURL is <editor>?tree=<json>&total=<n>&acctotal=<n>, keeping any
// query the editor URL already carries.
func ConfigurationURL(editor string, tree model.Tree, s model.Settings) (string, error) {
	u, err := url.Parse(strings.TrimSpace(editor))
	if err != nil {
		return "", fmt.Errorf("editor url: %w", err)
	}
	b, err := json.Marshal(tree)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("tree", string(b))
	q.Set("total", strconv.Itoa(s.Total))
	q.Set("acctotal", strconv.Itoa(s.AccTotal))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
