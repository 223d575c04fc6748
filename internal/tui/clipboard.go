package tui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

type clipboardCmd struct {
	name string
	args []string
}

func clipboardCommands() []clipboardCmd {
	switch runtime.GOOS {
	case "darwin":
		return []clipboardCmd{{name: "pbcopy"}}
	case "windows":
		return []clipboardCmd{
			{name: "cmd", args: []string{"/c", "clip"}},
			{name: "powershell", args: []string{"-NoProfile", "-Command", "Set-Clipboard"}},
		}
	default:
		return []clipboardCmd{
			{name: "wl-copy"},
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"--clipboard", "--input"}},
		}
	}
}

// copyToClipboard pipes s into the first clipboard tool that is installed and succeeds.
func copyToClipboard(s string) error {
	var last error
	for _, c := range clipboardCommands() {
		if _, err := exec.LookPath(c.name); err != nil {
			last = err
			continue
		}
		cmd := exec.Command(c.name, c.args...)
		cmd.Stdin = strings.NewReader(s)
		if err := cmd.Run(); err != nil {
			last = fmt.Errorf("%s: %w", c.name, err)
			continue
		}
		return nil
	}
	if last == nil {
		last = fmt.Errorf("no clipboard tool found")
	}
	return last
}
