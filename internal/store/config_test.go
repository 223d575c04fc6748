package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PEBBLE_TRACKER_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.EditorURL != DefaultEditorURL {
		t.Fatalf("EditorURL = %q", cfg.EditorURL)
	}
	if cfg.Channel.Kind != DefaultChannelKind || cfg.Channel.Timeout != DefaultChannelTimeout {
		t.Fatalf("Channel = %+v", cfg.Channel)
	}
	if cfg.Web.Addr != DefaultWebAddr {
		t.Fatalf("Web.Addr = %q", cfg.Web.Addr)
	}
}

func TestSaveConfig_RoundTripAndBackup(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PEBBLE_TRACKER_CONFIG_DIR", dir)

	want := Config{
		EditorURL: "http://example.test/tracker.html",
		Channel:   ChannelConfig{Kind: "websocket", URL: "ws://gw.test/appmessage", Timeout: 3 * time.Second},
		Web:       WebConfig{Addr: "127.0.0.1:9999"},
	}
	if err := SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got != want {
		t.Fatalf("roundtrip mismatch:\nwant: %+v\ngot:  %+v", want, got)
	}

	want.Web.Addr = "127.0.0.1:1"
	if err := SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig (second): %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, configFileName+".bak")); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("PEBBLE_TRACKER_CONFIG_DIR", t.TempDir())
	t.Setenv("PEBBLE_TRACKER_CHANNEL_KIND", "websocket")
	t.Setenv("PEBBLE_TRACKER_CHANNEL_TIMEOUT", "250ms")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Channel.Kind != "websocket" {
		t.Fatalf("Channel.Kind = %q", cfg.Channel.Kind)
	}
	if cfg.Channel.Timeout != 250*time.Millisecond {
		t.Fatalf("Channel.Timeout = %v", cfg.Channel.Timeout)
	}
}
