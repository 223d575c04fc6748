package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joker512/pebble-tracker/internal/bridge"
	"github.com/joker512/pebble-tracker/internal/store"
	"github.com/joker512/pebble-tracker/internal/web"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the tree editor over HTTP",
		Long: strings.TrimSpace(`
Serve the tree editor from a local HTTP server.

Saving in the editor persists the tree and hours and sends the encoded
message through the configured channel, exactly like ` + "`config closed`" + `.
`),
		Example: strings.TrimSpace(`
pebble-tracker web
pebble-tracker web --addr 127.0.0.1:0 --open
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = cfg.Web.Addr
			}
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()

			b, srv, err := newEditorServer(cmd, app, cfg, actualAddr, nil)
			if err != nil {
				_ = ln.Close()
				return writeErr(cmd, err)
			}
			u, err := b.ShowConfiguration(cmd.Context())
			if err != nil {
				_ = ln.Close()
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
			hints := []string{}
			if !opened {
				hints = append(hints, "open "+u)
			}
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       u,
					"dir":       app.Dir,
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "Tracker editor running at %s\n", u)
			if openErr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", openErr)
			}

			return serve(cmd.Context(), ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port; default: web.addr from config)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the editor in your default browser")
	return cmd
}

// newEditorServer builds the bridge and the editor server for a listener on
// addr. closed, when set, runs after every handled close event.
func newEditorServer(cmd *cobra.Command, app *App, cfg store.Config, addr string, closed func()) (*bridge.Bridge, *web.Server, error) {
	b, err := newBridge(cmd, app, cfg, web.EditorURL(addr))
	if err != nil {
		return nil, nil, err
	}
	srv, err := web.NewServer(web.ServerConfig{
		Addr: addr,
		OnClose: func(ctx context.Context, response string) error {
			_, err := b.WebviewClosed(ctx, response)
			if closed != nil {
				closed()
			}
			return err
		},
		Logger: newLogger(cmd, app),
	})
	if err != nil {
		return nil, nil, err
	}
	return b, srv, nil
}
