package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joker512/pebble-tracker/internal/bridge"
	"github.com/joker512/pebble-tracker/internal/channel"
	"github.com/joker512/pebble-tracker/internal/codec"
	"github.com/joker512/pebble-tracker/internal/model"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// setupEnv isolates config and state in temp dirs and returns the state dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("PEBBLE_TRACKER_CONFIG_DIR", t.TempDir())
	t.Setenv("PEBBLE_TRACKER_DIR", "")
	t.Setenv("PEBBLE_TRACKER_FORMAT", "")
	t.Setenv("PEBBLE_TRACKER_CHANNEL_KIND", "")
	return t.TempDir()
}

func dataOf(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &env), "stdout:\n%s", out)
	return env.Data
}

func TestTreeDefaults(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, []string{"tree", "defaults"})
	require.NoError(t, err)
	data := dataOf(t, out)
	require.EqualValues(t, 8, data["total"])
	require.EqualValues(t, 40, data["accTotal"])
	require.Len(t, data["tree"], 2)
}

func TestConfigURL_UsesDefaultsWhenNothingStored(t *testing.T) {
	dir := setupEnv(t)

	out, stderr, err := runCLI(t, []string{"--dir", dir, "config", "url"})
	require.NoError(t, err)
	u, _ := dataOf(t, out)["url"].(string)
	require.True(t, strings.HasPrefix(u, "http://127.0.0.1:8531/tracker.html?tree="), u)
	require.Contains(t, u, "&total=8&acctotal=40")
	require.Contains(t, string(stderr), "using defaults")
}

func TestConfigClosed_PersistsAndSends(t *testing.T) {
	dir := setupEnv(t)

	resp, err := bridge.FormatResponse(model.Tree{model.Leaf("solo", 2)}, model.Settings{Total: 6, AccTotal: 30})
	require.NoError(t, err)

	out, stderr, err := runCLI(t, []string{"--dir", dir, "config", "closed", resp, "--wait", "5s"})
	require.NoError(t, err)
	data := dataOf(t, out)
	require.Equal(t, true, data["changed"])
	require.Equal(t, true, data["acked"])
	require.EqualValues(t, 4, data["entries"])
	require.NotEmpty(t, data["sendId"])
	// The log channel prints the app message frame.
	require.Contains(t, string(stderr), `"type":"appmessage"`)
	require.Contains(t, string(stderr), "tree sent to watch successfully")

	out, _, err = runCLI(t, []string{"--dir", dir, "tree", "show", "--json"})
	require.NoError(t, err)
	data = dataOf(t, out)
	require.EqualValues(t, 6, data["total"])
	require.EqualValues(t, 30, data["accTotal"])
	require.Nil(t, data["defaulted"])

	out, _, err = runCLI(t, []string{"--dir", dir, "sends", "list"})
	require.NoError(t, err)
	var sends struct {
		Data []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &sends))
	require.Len(t, sends.Data, 1)
	require.Equal(t, "acked", sends.Data[0].Status)
}

func TestConfigClosed_EmptyResponseChangesNothing(t *testing.T) {
	dir := setupEnv(t)

	out, stderr, err := runCLI(t, []string{"--dir", dir, "config", "closed"})
	require.NoError(t, err)
	require.Equal(t, false, dataOf(t, out)["changed"])
	require.Contains(t, string(stderr), "got no changes")

	out, _, err = runCLI(t, []string{"--dir", dir, "sends", "list"})
	require.NoError(t, err)
	require.Equal(t, `{"data":[]}`, strings.TrimSpace(string(out)))
}

func TestConfigClosed_AcceptsCloseURL(t *testing.T) {
	dir := setupEnv(t)

	resp, err := bridge.FormatResponse(model.DefaultTree(), model.DefaultSettings())
	require.NoError(t, err)

	out, _, err := runCLI(t, []string{"--dir", dir, "-q", "config", "closed", closeURLPrefix + resp})
	require.NoError(t, err)
	require.EqualValues(t, 22, dataOf(t, out)["entries"])
}

func TestConfigClosed_MalformedResponse(t *testing.T) {
	dir := setupEnv(t)

	_, stderr, err := runCLI(t, []string{"--dir", dir, "-q", "config", "closed", "%5Bnot-json"})
	require.Error(t, err)
	require.NotEmpty(t, stderr)

	out, _, err := runCLI(t, []string{"--dir", dir, "tree", "show", "--json"})
	require.NoError(t, err)
	require.NotNil(t, dataOf(t, out)["defaulted"])
}

func TestEncode_DefaultTree(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := runCLI(t, []string{"--dir", dir, "encode"})
	require.NoError(t, err)
	data := dataOf(t, out)
	require.EqualValues(t, 22, data["entries"])
	msg := data["message"].(map[string]any)
	require.Equal(t, "workeducation", msg["1"])
	require.Equal(t, "hard", msg["110"])
	require.EqualValues(t, 40, msg["2000"])

	out, _, err = runCLI(t, []string{"--dir", dir, "--format", "lines", "encode", "--total", "5"})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 22)
	require.Equal(t, `1 "workeducation"`, lines[0])
	require.Equal(t, "1000 5", lines[20])
}

func TestEncode_TreeFileOverCapacity(t *testing.T) {
	dir := setupEnv(t)

	var tree model.Tree
	for i := 0; i < codec.MaxLeaves+1; i++ {
		tree = append(tree, model.Leaf("t"+string(rune('a'+i)), 1))
	}
	b, err := json.Marshal(tree)
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(p, b, 0o644))

	_, stderr, err := runCLI(t, []string{"--dir", dir, "encode", "--tree", p})
	require.ErrorIs(t, err, codec.ErrCapacityExceeded)
	require.Contains(t, string(stderr), "exceeds message key capacity")
}

func TestDecode_RebuildsTree(t *testing.T) {
	setupEnv(t)

	msg, err := codec.Encode(model.DefaultTree(), model.DefaultSettings())
	require.NoError(t, err)
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "msg.json")
	require.NoError(t, os.WriteFile(p, b, 0o644))

	out, _, err := runCLI(t, []string{"decode", p})
	require.NoError(t, err)
	data := dataOf(t, out)

	want, err := json.Marshal(model.DefaultTree())
	require.NoError(t, err)
	got, err := json.Marshal(data["tree"])
	require.NoError(t, err)
	require.JSONEq(t, string(want), string(got))
}

func TestDecode_AcceptsLogFrameFromStdin(t *testing.T) {
	setupEnv(t)

	cmd := NewRootCmd()
	var outBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(`{"type":"appmessage","id":"x","payload":{"10":"solo","20":3,"1000":8,"2000":40}}`))
	cmd.SetArgs([]string{"decode", "-"})
	require.NoError(t, cmd.Execute())

	data := dataOf(t, outBuf.Bytes())
	decoded := data["decoded"].(map[string]any)
	elements := decoded["elements"].([]any)
	require.Len(t, elements, 1)
	require.Equal(t, "solo", elements[0].(map[string]any)["name"])
}

func TestConfigSetAndShow(t *testing.T) {
	setupEnv(t)

	_, _, err := runCLI(t, []string{"config", "set", "channel.kind", "websocket"})
	require.NoError(t, err)
	_, _, err = runCLI(t, []string{"config", "set", "channel.timeout", "3s"})
	require.NoError(t, err)

	out, _, err := runCLI(t, []string{"config", "show"})
	require.NoError(t, err)
	ch := dataOf(t, out)["channel"].(map[string]any)
	require.Equal(t, "websocket", ch["kind"])
	require.Equal(t, "3s", ch["timeout"])

	_, _, err = runCLI(t, []string{"config", "set", "channel.kind", "carrier-pigeon"})
	require.Error(t, err)
	_, _, err = runCLI(t, []string{"config", "set", "nope", "x"})
	require.Error(t, err)
}

func TestTreeApply_PersistsStructuralEdits(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := runCLI(t, []string{"--dir", dir, "tree", "apply", "collapse:0", "inc:0"})
	require.NoError(t, err)
	data := dataOf(t, out)
	tree := data["tree"].([]any)
	first := tree[0].(map[string]any)["text"].(map[string]any)
	require.Equal(t, "main", first["name"])
	// Collapsed to the smallest child priority (1), then incremented.
	require.EqualValues(t, 2, first["priority"])

	_, _, err = runCLI(t, []string{"--dir", dir, "tree", "apply", "explode:0"})
	require.Error(t, err)

	out, _, err = runCLI(t, []string{"--dir", dir, "tree", "show", "--json"})
	require.NoError(t, err)
	require.Len(t, dataOf(t, out)["tree"], 2)
}

func TestTreeShow_RendersText(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("NO_COLOR", "1")

	out, _, err := runCLI(t, []string{"--dir", dir, "tree", "show"})
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "daily 8h · accumulated 40h")
	require.Contains(t, s, "distractions p4")
}

// lockedBuffer is written by the gateway's connection goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDeviceSim_AcksAndPrintsTree(t *testing.T) {
	t.Parallel()

	out := &lockedBuffer{}
	gw := newDeviceSim(out, nil, "")
	srv := httptest.NewServer(deviceSimHandler(gw))
	defer srv.Close()

	ws := &channel.Websocket{URL: "ws" + strings.TrimPrefix(srv.URL, "http") + deviceSimPath, Timeout: 5 * time.Second}
	msg, err := codec.Encode(model.DefaultTree(), model.DefaultSettings())
	require.NoError(t, err)

	done := make(chan error, 1)
	ws.Send(context.Background(), msg, func() { done <- nil }, func(err error) { done <- err })
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("no outcome")
	}

	d, ok := gw.Last()
	require.True(t, ok)
	require.Len(t, d.Tree, 2)
	require.Contains(t, out.String(), "optimization")
}

func TestDeviceSim_Reject(t *testing.T) {
	t.Parallel()

	gw := newDeviceSim(&lockedBuffer{}, nil, "battery low")
	srv := httptest.NewServer(deviceSimHandler(gw))
	defer srv.Close()

	ws := &channel.Websocket{URL: "ws" + strings.TrimPrefix(srv.URL, "http") + deviceSimPath, Timeout: 5 * time.Second}
	msg, err := codec.Encode(model.DefaultTree(), model.DefaultSettings())
	require.NoError(t, err)

	done := make(chan error, 1)
	ws.Send(context.Background(), msg, func() { done <- nil }, func(err error) { done <- err })
	err = <-done
	var rejected *channel.RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "battery low", rejected.Reason)
}

func TestDocs(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, []string{"docs"})
	require.NoError(t, err)
	require.Len(t, dataOf(t, out)["topics"], 4)

	out, _, err = runCLI(t, []string{"docs", "message", "--raw"})
	require.NoError(t, err)
	require.Contains(t, string(out), "at most **4 groups** and **9 tasks**")

	_, _, err = runCLI(t, []string{"docs", "nope"})
	require.Error(t, err)
}

func TestUnknownNamesSuggest(t *testing.T) {
	setupEnv(t)

	_, stderr, err := runCLI(t, []string{"docs", "chanels"})
	require.Error(t, err)
	require.Contains(t, string(stderr), "did you mean channels?")

	_, stderr, err = runCLI(t, []string{"config", "set", "channel.timout", "3s"})
	require.Error(t, err)
	require.Contains(t, string(stderr), "did you mean channel.timeout?")
}
