package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joker512/pebble-tracker/internal/store"
	"github.com/joker512/pebble-tracker/internal/tui"
)

func newEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the tree in the terminal, then persist and send it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := st.LoadSession(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := newBridge(cmd, app, cfg, "")
			if err != nil {
				return writeErr(cmd, err)
			}

			var out map[string]any
			err = tui.Run(sess, func(response string) error {
				// The program has exited; the bridge logs to stderr from here on.
				res, err := b.WebviewClosed(context.WithoutCancel(cmd.Context()), response)
				if err != nil {
					return err
				}
				out = closedResult(res, cfg.Channel.Timeout+time.Second)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			if out == nil {
				return nil
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	return cmd
}
