//go:build webview

package cli

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	webview "github.com/webview/webview_go"

	"github.com/joker512/pebble-tracker/internal/store"
)

func newWebViewCmd(app *App) *cobra.Command {
	var addr string
	var title string
	var width int
	var height int
	var debug bool

	cmd := &cobra.Command{
		Use:   "webview",
		Short: "Open the tree editor in a native webview window",
		Long: strings.TrimSpace(`
Open the tree editor in a native webview window, the way the phone app shows
it. The window closes once the editor is saved or cancelled.

Notes:
- This command is build-tagged and requires: -tags webview
- It starts a local HTTP server and points the webview at it.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("webview: missing --addr"))
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ln.Close()
			actualAddr := ln.Addr().String()

			w := webview.New(debug)
			defer w.Destroy()

			closed := func() {
				// Let the done page render before the window goes away.
				time.AfterFunc(500*time.Millisecond, func() {
					w.Dispatch(w.Terminate)
				})
			}
			b, srv, err := newEditorServer(cmd, app, cfg, actualAddr, closed)
			if err != nil {
				return writeErr(cmd, err)
			}
			u, err := b.ShowConfiguration(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			go func() { _ = serve(cmd.Context(), ln, srv.Handler()) }()

			w.SetTitle(strings.TrimSpace(title))
			w.SetSize(width, height, webview.HintNone)
			w.Navigate(u)
			fmt.Fprintf(cmd.ErrOrStderr(), "Tracker webview running at %s\n", u)
			w.Run()
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:0", "Bind address for the local server (host:port or :port)")
	cmd.Flags().StringVar(&title, "title", "Tracker settings", "Window title")
	cmd.Flags().IntVar(&width, "width", 480, "Window width (pixels)")
	cmd.Flags().IntVar(&height, "height", 800, "Window height (pixels)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable webview debug mode")
	return cmd
}
