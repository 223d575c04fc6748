package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joker512/pebble-tracker/internal/model"
	"github.com/joker512/pebble-tracker/internal/mutate"
	"github.com/joker512/pebble-tracker/internal/store"
	"github.com/joker512/pebble-tracker/internal/tui"
)

func newTreeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Inspect and edit the stored task tree",
	}
	cmd.AddCommand(newTreeShowCmd(app))
	cmd.AddCommand(newTreeDefaultsCmd(app))
	cmd.AddCommand(newTreeResetCmd(app))
	cmd.AddCommand(newTreeApplyCmd(app))
	return cmd
}

func newTreeShowCmd(app *App) *cobra.Command {
	var markdown bool
	var asJSON bool
	var width int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the stored tree (defaults when nothing is stored)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := st.LoadSession(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if asJSON {
				return writeOut(cmd, app, sessionData(sess))
			}

			tui.SetupColorProfile()
			if markdown {
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMarkdown(tui.TreeMarkdown(sess.Tree, sess.Settings), width))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderTree(sess.Tree, sess.Settings))
			return nil
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render as markdown (glamour)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tree and hours as data instead of rendering them")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --markdown")
	return cmd
}

func sessionData(sess store.Session) map[string]any {
	var defaulted []string
	if sess.Defaulted.Tree {
		defaulted = append(defaulted, store.KeyTree)
	}
	if sess.Defaulted.Total {
		defaulted = append(defaulted, store.KeyTotal)
	}
	if sess.Defaulted.AccTotal {
		defaulted = append(defaulted, store.KeyAccTotal)
	}
	data := map[string]any{
		"tree":     sess.Tree,
		"total":    sess.Settings.Total,
		"accTotal": sess.Settings.AccTotal,
	}
	if len(defaulted) > 0 {
		data["defaulted"] = defaulted
	}
	return map[string]any{"data": data}
}

func newTreeDefaultsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the built-in default tree and hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := model.DefaultSettings()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"tree":     model.DefaultTree(),
					"total":    s.Total,
					"accTotal": s.AccTotal,
				},
			})
		},
	}
}

func newTreeResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the stored tree and hours with the defaults (nothing is sent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sess := store.DefaultSession()
			if err := st.SaveSession(cmd.Context(), sess); err != nil {
				return writeErr(cmd, err)
			}
			sess.Defaulted = store.Defaulted{}
			return writeOut(cmd, app, sessionData(sess))
		},
	}
}

func newTreeApplyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <action>...",
		Short: "Apply structural edits to the stored tree (nothing is sent)",
		Long: `Actions: add, split:<path>, collapse:<path>, remove:<path>, inc:<path>, dec:<path>.
Paths are dotted child indexes, e.g. 0.1 for the second child of the first root.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := st.LoadSession(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			tree := sess.Tree
			for _, a := range args {
				res, err := mutate.Apply(tree, a)
				if err != nil {
					return writeErr(cmd, err)
				}
				tree = res.Tree
			}
			sess.Tree = tree
			if err := st.SaveSession(cmd.Context(), sess); err != nil {
				return writeErr(cmd, err)
			}
			sess.Defaulted = store.Defaulted{}
			return writeOut(cmd, app, sessionData(sess))
		},
	}
}
