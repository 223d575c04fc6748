package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joker512/pebble-tracker/internal/bridge"
	"github.com/joker512/pebble-tracker/internal/channel"
	"github.com/joker512/pebble-tracker/internal/format"
	"github.com/joker512/pebble-tracker/internal/store"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
	Quiet      bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "pebble-tracker",
		Short:        "Configuration bridge for the Pebble task tracker",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Edit the tree in the terminal and send it to the watch
  pebble-tracker edit

  # Serve the web editor and print its URL
  pebble-tracker web

  # Print the editor URL for the stored tree
  pebble-tracker config url

  # Apply an editor response (what the editor hands back on close)
  pebble-tracker config closed "$RESPONSE"
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("PEBBLE_TRACKER_DIR", ""), "Path to the state dir (default: the config dir)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PEBBLE_TRACKER_FORMAT", format.JSON), "Output format (json|edn|lines)")
	cmd.PersistentFlags().BoolVarP(&app.Quiet, "quiet", "q", false, "Do not log bridge activity to stderr")

	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newEncodeCmd(app))
	cmd.AddCommand(newDecodeCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newSendsCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newWebViewCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDeviceSimCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func resolveDir(app *App) (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}
	d, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

func openStore(app *App) (store.Store, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return store.Store{}, err
	}
	s := store.Store{Dir: dir}
	if err := s.Ensure(); err != nil {
		return store.Store{}, err
	}
	return s, nil
}

func newLogger(cmd *cobra.Command, app *App) *log.Logger {
	if app.Quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "pebble-tracker: ", log.LstdFlags)
}

// newBridge wires the store, the configured channel and editorURL (the
// configured one when empty) into a Bridge.
func newBridge(cmd *cobra.Command, app *App, cfg store.Config, editorURL string) (*bridge.Bridge, error) {
	st, err := openStore(app)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, app)
	st.Logger = logger
	ch, err := channel.New(channel.Config{
		Kind:      cfg.Channel.Kind,
		URL:       cfg.Channel.URL,
		Timeout:   cfg.Channel.Timeout,
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(editorURL) == "" {
		editorURL = cfg.EditorURL
	}
	return bridge.New(bridge.Options{
		Store:     st,
		Channel:   ch,
		EditorURL: editorURL,
		Logger:    logger,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
