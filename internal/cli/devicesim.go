package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joker512/pebble-tracker/internal/channel"
	"github.com/joker512/pebble-tracker/internal/tui"
)

const deviceSimPath = "/appmessage"

func newDeviceSimCmd(app *App) *cobra.Command {
	var addr string
	var reject string

	cmd := &cobra.Command{
		Use:   "device-sim",
		Short: "Run a simulated watch that receives app messages over websocket",
		Long: strings.TrimSpace(`
Run a simulated watch. It accepts the websocket channel's app messages at
` + deviceSimPath + `, decodes them the way the watch app does, prints the
rebuilt tree and acknowledges them.

Point the bridge at it with:
  pebble-tracker config set channel.kind websocket
  pebble-tracker config set channel.url ws://<addr>` + deviceSimPath + `
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("device-sim: missing --addr"))
			}
			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()

			tui.SetupColorProfile()
			gw := newDeviceSim(cmd.ErrOrStderr(), newLogger(cmd, app), strings.TrimSpace(reject))
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       "ws://" + actualAddr + deviceSimPath,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			return serve(cmd.Context(), ln, deviceSimHandler(gw))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9000", "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&reject, "reject", "", "Nack every message with this reason (to exercise the failure path)")
	return cmd
}

func newDeviceSim(w io.Writer, logger *log.Logger, reject string) *channel.Gateway {
	gw := &channel.Gateway{
		Logger: logger,
		OnDelivery: func(d channel.Delivery) {
			if d.Err != nil {
				return
			}
			fmt.Fprintf(w, "%s\n%s\n\n", d.Received.Format(time.RFC3339), tui.RenderTree(d.Tree, d.Decoded.Settings))
		},
	}
	if reject != "" {
		gw.Reject = func(channel.Delivery) string { return reject }
	}
	return gw
}

func deviceSimHandler(gw *channel.Gateway) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET "+deviceSimPath, gw)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}
