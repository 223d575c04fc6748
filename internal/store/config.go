package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileName = "config.toml"

	DefaultEditorURL      = "http://127.0.0.1:8531/tracker.html"
	DefaultWebAddr        = "127.0.0.1:8531"
	DefaultChannelKind    = "log"
	DefaultGatewayURL     = "ws://127.0.0.1:9000/appmessage"
	DefaultChannelTimeout = 10 * time.Second
)

// Config holds user preferences. Env var overrides use prefix PEBBLE_TRACKER_
// (e.g. PEBBLE_TRACKER_CHANNEL_KIND=websocket).
type Config struct {
	EditorURL string        `mapstructure:"editor_url"`
	Channel   ChannelConfig `mapstructure:"channel"`
	Web       WebConfig     `mapstructure:"web"`
}

type ChannelConfig struct {
	// Kind is one of: log|websocket
	Kind    string        `mapstructure:"kind"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WebConfig struct {
	Addr string `mapstructure:"addr"`
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("editor_url", DefaultEditorURL)
	v.SetDefault("channel.kind", DefaultChannelKind)
	v.SetDefault("channel.url", DefaultGatewayURL)
	v.SetDefault("channel.timeout", DefaultChannelTimeout.String())
	v.SetDefault("web.addr", DefaultWebAddr)

	v.SetConfigType("toml")
	v.SetEnvPrefix("PEBBLE_TRACKER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// LoadConfig reads config.toml from the config dir when present, then applies
// env overrides on top of the defaults.
func LoadConfig() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func isNotExist(err error) bool {
	if os.IsNotExist(err) {
		return true
	}
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// SaveConfig writes cfg to config.toml, keeping the previous file as config.toml.bak.
func SaveConfig(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	// Best-effort safety net; a failed backup never blocks the save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, configFileName+".bak.*.tmp", path+".bak", prev, 0o600)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("editor_url", cfg.EditorURL)
	v.Set("channel.kind", cfg.Channel.Kind)
	v.Set("channel.url", cfg.Channel.URL)
	v.Set("channel.timeout", cfg.Channel.Timeout.String())
	v.Set("web.addr", cfg.Web.Addr)

	// viper writes by path, so it gets a unique temp name of its own (the
	// .toml suffix selects the encoder); the rename publishes it.
	f, err := os.CreateTemp(dir, "config.*.tmp.toml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	tmp := f.Name()
	_ = f.Close()
	defer func() { _ = os.Remove(tmp) }()
	if err := v.WriteConfigAs(tmp); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	_ = os.Chmod(tmp, 0o600)
	return os.Rename(tmp, path)
}
