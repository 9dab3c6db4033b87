package process

// Notes:
// - KillTree is only exercised with PIDs that cannot name a real process
//   group. Killing a live group is covered by the engine integration path.

import (
	"os/exec"
	"testing"
)

func TestKillTree_InvalidPID(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{0, -1, 999999999} {
		KillTree(pid)
	}
}

func TestDetach_SetsProcessAttributes(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	Detach(cmd)
	if cmd.SysProcAttr == nil {
		t.Fatal("Detach should set SysProcAttr")
	}

	// Idempotent on an already configured command.
	Detach(cmd)
}
