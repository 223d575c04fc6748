package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joker512/pebble-tracker/internal/cli"
)

const closeURLPrefix = "pebblejs://close#"

// rewriteCloseURLArgs turns `pebble-tracker pebblejs://close#<response>` into
// `pebble-tracker config closed <response>`, so the tool can be registered as
// the handler of the editor's close URL.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first.
func rewriteCloseURLArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}
	valueFlags := map[string]bool{
		"--dir":    true,
		"--format": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			// Cobra stops resolving subcommands at "--".
			if i+1 < len(argv) && strings.HasPrefix(argv[i+1], closeURLPrefix) {
				return spliceClosed(append(argv[:i:i], argv[i+1:]...), i)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if strings.HasPrefix(a, closeURLPrefix) {
			return spliceClosed(argv, i)
		}
		return argv
	}
	return argv
}

func spliceClosed(argv []string, i int) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:i]...)
	out = append(out, "config", "closed", strings.TrimPrefix(argv[i], closeURLPrefix))
	out = append(out, argv[i+1:]...)
	return out
}

func main() {
	os.Args = rewriteCloseURLArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
