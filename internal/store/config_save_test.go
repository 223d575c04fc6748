package store

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSaveConfig_ConcurrentWriters_DoesNotCorruptConfig(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("PEBBLE_TRACKER_CONFIG_DIR", cfgDir)

	if err := SaveConfig(Config{
		EditorURL: DefaultEditorURL,
		Channel:   ChannelConfig{Kind: DefaultChannelKind, URL: DefaultGatewayURL, Timeout: DefaultChannelTimeout},
		Web:       WebConfig{Addr: DefaultWebAddr},
	}); err != nil {
		t.Fatalf("SaveConfig(seed): %v", err)
	}

	const n = 32
	errCh := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			cfg, err := LoadConfig()
			if err != nil {
				errCh <- err
				return
			}
			cfg.Web.Addr = fmt.Sprintf("127.0.0.1:%d", 10000+i)
			cfg.Channel.Timeout = time.Duration(i+1) * time.Second
			if err := SaveConfig(cfg); err != nil {
				errCh <- err
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SaveConfig: %v", err)
	}
	if t.Failed() {
		return
	}

	// Whichever writer won, the file must still parse.
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config.toml corrupted/unparseable: %v", err)
	}
	if !strings.HasPrefix(cfg.Web.Addr, "127.0.0.1:1") {
		t.Fatalf("Web.Addr = %q", cfg.Web.Addr)
	}

	ents, err := os.ReadDir(cfgDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}
