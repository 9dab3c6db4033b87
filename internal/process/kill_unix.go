//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Detach starts cmd in its own process group so KillTree reaches the
// children it spawns.
func Detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillTree sends SIGKILL to the process group led by pid.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort; callers also kill the process itself.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
