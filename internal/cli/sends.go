package cli

import (
	"github.com/spf13/cobra"

	"github.com/joker512/pebble-tracker/internal/store"
)

func newSendsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sends",
		Short: "Inspect transmission attempts",
	}
	cmd.AddCommand(newSendsListCmd(app))
	return cmd
}

func newSendsListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sends, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			recs, err := st.ListSends(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if recs == nil {
				recs = []store.SendRecord{}
			}
			return writeOut(cmd, app, map[string]any{"data": recs})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max number of sends to list")
	return cmd
}
