package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/joker512/pebble-tracker/internal/bridge"
	"github.com/joker512/pebble-tracker/internal/channel"
	"github.com/joker512/pebble-tracker/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the editor and apply its responses",
	}
	cmd.AddCommand(newConfigURLCmd(app))
	cmd.AddCommand(newConfigClosedCmd(app))
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func newConfigURLCmd(app *App) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the editor URL for the stored tree (defaults when nothing is stored)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := newBridge(cmd, app, cfg, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			u, err := b.ShowConfiguration(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			opened := false
			openErr := ""
			if open {
				if err := openPath(u); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"url":       u,
					"opened":    opened,
					"openError": openErr,
				},
			})
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the URL in your default browser")
	return cmd
}

func newConfigClosedCmd(app *App) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "closed [response]",
		Short: "Apply an editor response: persist it, encode it and send it to the watch",
		Long: strings.TrimSpace(`
Apply the response the editor returns when it closes: the URL-encoded JSON
array [tree, total, accTotal]. A bare tree array keeps the stored hours. An
empty or missing response changes nothing.

The response may also be given as the full close URL (pebblejs://close#...).
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			response := ""
			if len(args) == 1 {
				response = strings.TrimPrefix(strings.TrimSpace(args[0]), closeURLPrefix)
			}

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := newBridge(cmd, app, cfg, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := b.WebviewClosed(cmd.Context(), response)
			if err != nil {
				return writeErr(cmd, err)
			}
			if wait <= 0 {
				wait = cfg.Channel.Timeout + time.Second
			}
			return writeOut(cmd, app, map[string]any{"data": closedResult(res, wait)})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "How long to wait for the watch to acknowledge (default: channel timeout + 1s)")
	return cmd
}

const closeURLPrefix = "pebblejs://close#"

// closedResult waits up to wait for the send to settle. The process would
// otherwise exit before the channel calls back.
func closedResult(res bridge.Result, wait time.Duration) map[string]any {
	out := map[string]any{"changed": res.Changed}
	if !res.Changed {
		return out
	}
	out["entries"] = len(res.Message)
	if res.SendID != "" {
		out["sendId"] = res.SendID
	}
	if res.Settled == nil {
		return out
	}

	select {
	case o := <-res.Settled:
		out["acked"] = o.Acked
		if o.Err != nil {
			out["error"] = o.Err.Error()
		}
	case <-time.After(wait):
		out["acked"] = false
		out["error"] = fmt.Sprintf("no answer from the watch within %s", wait)
	}
	return out
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration (file + env overrides)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"path":      path,
					"editorUrl": cfg.EditorURL,
					"channel": map[string]any{
						"kind":    cfg.Channel.Kind,
						"url":     cfg.Channel.URL,
						"timeout": cfg.Channel.Timeout.String(),
					},
					"web": map[string]any{"addr": cfg.Web.Addr},
				},
			})
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value (" + strings.Join(configKeys, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := setConfigValue(&cfg, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"key": strings.TrimSpace(args[0]), "value": strings.TrimSpace(args[1])},
			})
		},
	}
}

var configKeys = []string{"editor_url", "channel.kind", "channel.url", "channel.timeout", "web.addr"}

func setConfigValue(cfg *store.Config, key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "editor_url":
		if value == "" {
			return errors.New("editor_url must not be empty")
		}
		cfg.EditorURL = value
	case "channel.kind":
		switch value {
		case channel.KindLog, channel.KindWebsocket:
		default:
			return fmt.Errorf("channel.kind must be %s or %s", channel.KindLog, channel.KindWebsocket)
		}
		cfg.Channel.Kind = value
	case "channel.url":
		cfg.Channel.URL = value
	case "channel.timeout":
		d, err := cast.ToDurationE(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("channel.timeout must be a positive duration: %q", value)
		}
		cfg.Channel.Timeout = d
	case "web.addr":
		if value == "" {
			return errors.New("web.addr must not be empty")
		}
		cfg.Web.Addr = value
	default:
		return fmt.Errorf("unknown config key: %s%s", key, didYouMean(key, configKeys))
	}
	return nil
}
