//go:build windows

package executor

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// terminate kills the command; process groups are not available.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
