//go:build windows

package process

import (
	"os/exec"
	"strconv"
	"syscall"
)

// Detach starts cmd in a new process group.
func Detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}

// KillTree kills pid and its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
