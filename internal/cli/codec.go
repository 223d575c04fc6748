package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joker512/pebble-tracker/internal/codec"
	"github.com/joker512/pebble-tracker/internal/format"
	"github.com/joker512/pebble-tracker/internal/model"
)

func newEncodeCmd(app *App) *cobra.Command {
	var treePath string
	var total int
	var accTotal int

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the message the stored tree encodes to (nothing is sent)",
		Example: strings.TrimSpace(`
pebble-tracker encode
pebble-tracker encode --tree tree.json --total 6 --format lines
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := st.LoadSession(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			tree, settings := sess.Tree, sess.Settings
			if strings.TrimSpace(treePath) != "" {
				b, err := readInput(cmd, treePath)
				if err != nil {
					return writeErr(cmd, err)
				}
				tree, err = model.ParseTree(b)
				if err != nil {
					return writeErr(cmd, err)
				}
				tree.Normalize()
			}
			if cmd.Flags().Changed("total") {
				settings.Total = total
			}
			if cmd.Flags().Changed("acc-total") {
				settings.AccTotal = accTotal
			}

			msg, err := codec.Encode(tree, settings)
			if err != nil {
				return writeErr(cmd, err)
			}
			// Lines output is the bare message, as the watch log prints it.
			if app.Format == format.Lines {
				return writeOut(cmd, app, msg)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"entries": len(msg),
					"message": msg,
				},
			})
		},
	}

	cmd.Flags().StringVar(&treePath, "tree", "", "Encode the tree in this JSON file (- for stdin) instead of the stored one")
	cmd.Flags().IntVar(&total, "total", 0, "Override the daily hours")
	cmd.Flags().IntVar(&accTotal, "acc-total", 0, "Override the accumulated hours")
	return cmd
}

func newDecodeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file|->",
		Short: "Read a message JSON the way the watch does and rebuild the tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(cmd, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			msg, err := parseMessage(b)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := codec.Decode(msg)
			if err != nil {
				return writeErr(cmd, err)
			}
			tree, err := codec.Rebuild(d)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"decoded": d,
					"tree":    tree,
				},
			})
		},
	}
	return cmd
}

// parseMessage accepts a bare message object or an app-message frame
// ({"type":"appmessage","payload":{...}}) as the log channel prints it.
func parseMessage(b []byte) (codec.Message, error) {
	var probe struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(probe.Payload) > 0 {
		b = probe.Payload
	}
	var msg codec.Message
	if err := json.Unmarshal(b, &msg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return msg, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
