package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDefaultTree_Shape(t *testing.T) {
	t.Parallel()

	tree := DefaultTree()
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots; got %d", len(tree))
	}
	internal, leaves := tree.Counts()
	if internal != 4 || leaves != 6 {
		t.Fatalf("expected 4 internal nodes and 6 leaves; got %d/%d", internal, leaves)
	}

	var names []string
	for _, l := range tree.Leaves() {
		names = append(names, l.Name)
	}
	want := []string{"hard", "simple", "education", "overview", "optimization", "distractions"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("leaf order mismatch:\nwant: %v\ngot:  %v", want, names)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("default tree should validate: %v", err)
	}
}

func TestDefaultTree_FreshCopy(t *testing.T) {
	t.Parallel()

	a := DefaultTree()
	a[0].Name = "changed"
	b := DefaultTree()
	if b[0].Name != "main" {
		t.Fatalf("DefaultTree returned shared state: %q", b[0].Name)
	}
}

func TestTreeJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultTree()
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ParseTree(b)
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("roundtrip mismatch:\nwant: %s\ngot:  %#v", b, got)
	}
}

func TestParseTree_EditorShape(t *testing.T) {
	t.Parallel()

	raw := `[{"text":{"name":"a"},"children":[{"text":{"name":"x","priority":"2"}},{"text":{"name":"y","priority":3,"value":"why"}}]}]`
	tree, err := ParseTree([]byte(raw))
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}
	if tree[0].Kind != KindInternal || tree[0].Value != "" {
		t.Fatalf("unexpected root: %#v", tree[0])
	}
	if got := tree[0].Children[0].Priority; got != 2 {
		t.Fatalf("expected string priority to coerce to 2; got %d", got)
	}
	if got := tree[0].Children[1].Label(); got != "why" {
		t.Fatalf("expected explicit value to win; got %q", got)
	}

	tree.Normalize()
	if tree[0].Value != "a" || tree[0].Children[0].Value != "x" {
		t.Fatalf("Normalize did not fill values: %#v", tree[0])
	}
}

func TestParseTree_MalformedNodes(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"both":     `[{"text":{"name":"a","priority":1},"children":[{"text":{"name":"x","priority":1}},{"text":{"name":"y","priority":1}}]}]`,
		"neither":  `[{"text":{"name":"a"}}]`,
		"one":      `[{"text":{"name":"a"},"children":[{"text":{"name":"x","priority":1}}]}]`,
		"zero":     `[{"text":{"name":"a","priority":0}}]`,
		"nonint":   `[{"text":{"name":"a","priority":"high"}}]`,
		"deepBoth": `[{"text":{"name":"a"},"children":[{"text":{"name":"x","priority":1}},{"text":{"name":"y"}}]}]`,
	}
	for name, raw := range cases {
		_, err := ParseTree([]byte(raw))
		var nodeErr *NodeError
		if !errors.As(err, &nodeErr) {
			t.Fatalf("%s: expected *NodeError; got %v", name, err)
		}
		if nodeErr.Path == "" {
			t.Fatalf("%s: expected error to name the node path; got %v", name, err)
		}
	}
}

func TestValidate_InMemoryVariants(t *testing.T) {
	t.Parallel()

	cases := []Tree{
		{},
		{Internal("a", Leaf("x", 1), nil)},
		{&Node{Name: "ghost"}},
		{Leaf("", 1)},
		{Leaf("x", 0)},
	}
	for i, tree := range cases {
		if err := tree.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	tree := DefaultTree()
	if n := tree.Find("1.0.1"); n == nil || n.Name != "optimization" {
		t.Fatalf("Find(1.0.1) = %#v", n)
	}
	for _, p := range []string{"", "2", "0.2", "0.1.0", "x"} {
		if n := tree.Find(p); n != nil {
			t.Fatalf("Find(%q) expected nil; got %#v", p, n)
		}
	}
}

func TestParseHours(t *testing.T) {
	t.Parallel()

	for _, v := range []any{8, float64(8), "8", " 8 ", "8.0", json.Number("8.0"), json.Number("8")} {
		n, err := ParseHours(v)
		if err != nil || n != 8 {
			t.Fatalf("ParseHours(%#v) = %d, %v", v, n, err)
		}
	}
	for _, v := range []any{nil, "eight", []any{}, 8.5, "8.5", json.Number("1e40")} {
		if _, err := ParseHours(v); err == nil {
			t.Fatalf("ParseHours(%#v) expected error", v)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	var se *SettingsError
	if err := (Settings{Total: -1, AccTotal: 40}).Validate(); !errors.As(err, &se) || se.Field != "total" {
		t.Fatalf("expected total SettingsError; got %v", err)
	}
	if err := (Settings{Total: 8, AccTotal: 0}).Validate(); err != nil {
		t.Fatalf("zero hours should validate: %v", err)
	}
}
