package util

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// SocatManager manages socat-created virtual serial pairs, used by the
// simulator: it writes one end of a pair while a role command opens the
// other as its radio or GNSS device.
type SocatManager struct {
	mu     sync.Mutex
	cmds   []*exec.Cmd
	links  []string
	closed bool
}

// NewSocatManager initializes an empty manager.
func NewSocatManager() *SocatManager {
	return &SocatManager{}
}

// CreatePair starts a socat process linking two PTYs bidirectionally.
func (m *SocatManager) CreatePair(left, right string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := exec.Command(
		"socat", "-d", "-d",
		fmt.Sprintf("pty,raw,echo=0,link=%s", left),
		fmt.Sprintf("pty,raw,echo=0,link=%s", right),
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start socat: %w", err)
	}
	slog.Info("virtual serial pair up", "pid", cmd.Process.Pid, "left", left, "right", right)

	m.cmds = append(m.cmds, cmd)
	m.links = append(m.links, left, right)
	return nil
}

// Cleanup stops the socat processes and removes the created links. Safe to
// call more than once.
func (m *SocatManager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	for _, cmd := range m.cmds {
		if cmd.Process != nil {
			if err := cmd.Process.Kill(); err != nil {
				slog.Warn("kill socat", "pid", cmd.Process.Pid, "err", err)
			}
			_, _ = cmd.Process.Wait()
		}
	}
	for _, path := range m.links {
		if _, err := os.Lstat(path); err == nil {
			if err := os.Remove(path); err != nil {
				slog.Warn("remove serial link", "path", path, "err", err)
			}
		}
	}
	slog.Info("virtual serial cleanup complete", "pairs", len(m.links)/2)
}
