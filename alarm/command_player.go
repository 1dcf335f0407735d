package alarm

import (
	"fmt"
	"os/exec"
)

// commandPlayer shells out to whichever command-line audio player the host
// has. All candidates block until the clip finishes, preserving the
// synchronous contract of Play.
type commandPlayer struct {
	command string
	args    []string
}

// Players tried in order. ffplay needs flags to behave like a plain
// play-and-exit tool.
var playerCandidates = []struct {
	command string
	args    []string
}{
	{command: "aplay", args: []string{"-q"}},
	{command: "paplay"},
	{command: "afplay"},
	{command: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
}

// newCommandPlayer picks the first available player on PATH, or nil when the
// host has none.
func newCommandPlayer(path string) Player {
	for _, c := range playerCandidates {
		if _, err := exec.LookPath(c.command); err == nil {
			return &commandPlayer{
				command: c.command,
				args:    append(append([]string{}, c.args...), path),
			}
		}
	}
	return nil
}

// Play runs the external player and waits for it to exit.
func (c *commandPlayer) Play() error {
	if err := exec.Command(c.command, c.args...).Run(); err != nil {
		return fmt.Errorf("%s failed: %w", c.command, err)
	}
	return nil
}
