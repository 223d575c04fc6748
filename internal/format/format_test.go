package format

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joker512/pebble-tracker/internal/codec"
)

func sampleMessage() codec.Message {
	return codec.Message{
		20:   codec.IntValue(1),
		10:   codec.StringValue("hard"),
		2:    codec.StringValue("main"),
		1000: codec.IntValue(8),
	}
}

func TestWrite_JSONKeepsKeyOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleMessage(), "", false))
	require.Equal(t, `{"2":"main","10":"hard","20":1,"1000":8}`+"\n", buf.String())
}

func TestWrite_EDNIntegerKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleMessage(), EDN, false))
	require.Equal(t, `{2 "main" 10 "hard" 20 1 1000 8}`+"\n", buf.String())
}

func TestWrite_EDNStructFields(t *testing.T) {
	t.Parallel()

	v := struct {
		Total   int      `json:"total"`
		Name    string   `json:"name"`
		Missing *string  `json:"missing"`
		Tags    []string `json:"tags"`
		Ok      bool     `json:"ok"`
		Ratio   float64  `json:"ratio"`
	}{Total: 8, Name: "work", Tags: []string{"a", "b"}, Ok: true, Ratio: 0.5}

	var buf bytes.Buffer
	require.NoError(t, WriteEDN(&buf, v, false))
	require.Equal(t, `{:missing nil :name "work" :ok true :ratio 0.5 :tags ["a" "b"] :total 8}`+"\n", buf.String())
}

func TestWrite_EDNPretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteEDN(&buf, map[string]any{"xs": []int{1}}, true))
	require.Equal(t, "{\n  :xs [\n    1\n  ]\n}\n", buf.String())
}

func TestWrite_Lines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleMessage(), Lines, false))
	require.Equal(t, "2 \"main\"\n10 \"hard\"\n20 1\n1000 8\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, []int{1, 2}, Lines, false))
	require.Equal(t, "[1,2]\n", buf.String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	require.Error(t, Write(&bytes.Buffer{}, 1, "yaml", false))
}
