package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

// CommandPlayer plays the notification sound by invoking an external
// command (for example "paplay /usr/share/sounds/chime.ogg").
type CommandPlayer struct {
	argv []string
}

// NewCommandPlayer parses a whitespace-separated command line. Returns
// nil for an empty command, which disables sound playback.
func NewCommandPlayer(cmdline string) *CommandPlayer {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil
	}
	return &CommandPlayer{argv: fields}
}

// Play runs the configured command and waits for it to finish.
func (p *CommandPlayer) Play() error {
	cmd := exec.Command(p.argv[0], p.argv[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify: play sound: %w", err)
	}
	return nil
}
