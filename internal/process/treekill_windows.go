//go:build windows

package process

import (
	"os"
	"os/exec"
	"time"

	"github.com/sagittar-io/termcore/internal/logging"
)

// KillOptions configures process termination behavior.
type KillOptions struct {
	// GracePeriod is how long to wait before forcing termination.
	// Default: 200ms
	GracePeriod time.Duration
}

// KillProcessGroup attempts to terminate only the leader process on Windows.
// Note: Windows lacks Unix-style process groups; child processes may remain.
func KillProcessGroup(leaderPID int, opts KillOptions) error {
	if leaderPID <= 0 {
		return nil
	}
	if opts.GracePeriod == 0 {
		opts.GracePeriod = 200 * time.Millisecond
	}

	proc, err := os.FindProcess(leaderPID)
	if err != nil {
		return err
	}

	if err := proc.Signal(os.Interrupt); err != nil {
		logging.Debug("best-effort interrupt of pid %d failed: %v", leaderPID, err)
	}
	if opts.GracePeriod > 0 {
		time.Sleep(opts.GracePeriod)
	}

	return proc.Kill()
}

// ForceKillProcess terminates the leader process immediately, without
// attempting an interrupt first.
func ForceKillProcess(leaderPID int) error {
	if leaderPID <= 0 {
		return nil
	}
	proc, err := os.FindProcess(leaderPID)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// SetProcessGroup is a no-op on Windows.
func SetProcessGroup(cmd *exec.Cmd) {
	_ = cmd
}
