// Package procexec runs external commands for scripts and the CLI.
package procexec

import (
	"errors"
	"os"
	"os/exec"
)

// Exec starts cmd[0] without arguments, waits for it to exit and returns
// its exit status. Remaining elements are ignored. It returns -1 when cmd
// is empty or the process cannot be started.
func Exec(cmd []string) int {
	if len(cmd) == 0 || cmd[0] == "" {
		return -1
	}
	c := exec.Command(cmd[0])
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		return -1
	}
	return 0
}
