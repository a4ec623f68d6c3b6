package child

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/ccheck/pkg/protocol"
)

// Handle is a spawned peer process talking over its stdin and stdout. A nil
// *Handle stands for an absent peer: every method is safe to call on it.
type Handle struct {
	name      string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	lines     chan string
	channel   *protocol.Channel
	exited    chan struct{}
	waitErr   error
	closeOnce sync.Once
	logger    zerolog.Logger
}

// Spawn starts path with args. Its stderr is shared with ours, its stdout is
// split into lines, and SIGHUP is its wakeup signal.
func Spawn(name, path string, args []string, logger zerolog.Logger) (*Handle, error) {
	var cmd = exec.Command(path, args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}

	var h = &Handle{
		name:   name,
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan string, 16),
		exited: make(chan struct{}),
		logger: logger.With().Str("peer", name).Int("pid", cmd.Process.Pid).Logger(),
	}
	h.channel = protocol.NewChannel(name, stdin, h.lines, h.Wakeup)

	var readDone = make(chan struct{})
	go func() {
		defer close(readDone)
		if err := protocol.ReadLines(stdout, h.lines); err != nil {
			h.logger.Debug().Err(err).Msg("read")
		}
	}()
	go func() {
		// Wait closes stdout, so all reads must be finished first.
		<-readDone
		h.waitErr = cmd.Wait()
		h.logger.Info().Str("status", h.status()).Msg("exited")
		close(h.exited)
	}()

	h.logger.Debug().Str("path", path).Strs("args", args).Msg("spawned")
	return h, nil
}

func (h *Handle) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

func (h *Handle) Pid() int {
	if h == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Channel is the transport to the peer, or nil for an absent peer.
func (h *Handle) Channel() *protocol.Channel {
	if h == nil {
		return nil
	}
	return h.channel
}

// Wakeup sends SIGHUP.
func (h *Handle) Wakeup() error {
	return h.signal(syscall.SIGHUP)
}

func (h *Handle) Terminate() error {
	return h.signal(syscall.SIGTERM)
}

func (h *Handle) Kill() error {
	return h.signal(syscall.SIGKILL)
}

func (h *Handle) signal(sig os.Signal) error {
	if h == nil {
		return nil
	}
	if !h.Alive() {
		return fmt.Errorf("%s: %w", h.name, os.ErrProcessDone)
	}
	var err = h.cmd.Process.Signal(sig)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal %s: %w", h.name, err)
	}
	return err
}

func (h *Handle) Alive() bool {
	if h == nil {
		return false
	}
	select {
	case <-h.exited:
		return false
	default:
		return true
	}
}

// Exited is closed once the process has been reaped. For an absent peer it
// is closed already.
func (h *Handle) Exited() <-chan struct{} {
	if h == nil {
		var closed = make(chan struct{})
		close(closed)
		return closed
	}
	return h.exited
}

// CloseStreams closes the peer's stdin and discards whatever it still
// writes, so that it sees end of input and can exit.
func (h *Handle) CloseStreams() {
	if h == nil {
		return
	}
	h.closeOnce.Do(func() {
		h.stdin.Close()
		go func() {
			for range h.lines {
			}
		}()
	})
}

// ExitStatus describes how the process ended. It is empty while the process
// runs.
func (h *Handle) ExitStatus() string {
	if h == nil || h.Alive() {
		return ""
	}
	return h.status()
}

func (h *Handle) status() string {
	var state = h.cmd.ProcessState
	if state == nil {
		return fmt.Sprintf("wait failed: %v", h.waitErr)
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return fmt.Sprintf("killed by signal %v", ws.Signal())
	}
	return fmt.Sprintf("exited with code %d", state.ExitCode())
}

// ExitCode is the process exit code, or -1 while it runs or when a signal
// ended it.
func (h *Handle) ExitCode() int {
	if h == nil || h.Alive() || h.cmd.ProcessState == nil {
		return -1
	}
	return h.cmd.ProcessState.ExitCode()
}

// Shutdown stops the given peers in order: SIGTERM, close the streams, give
// them grace to exit, SIGKILL whoever is left, and reap. Absent peers are
// skipped. It reports the peers that could not be reaped.
func Shutdown(grace time.Duration, handles ...*Handle) error {
	var live []*Handle
	for _, h := range handles {
		if h.Alive() {
			live = append(live, h)
		}
	}
	for _, h := range live {
		h.Terminate()
		h.CloseStreams()
	}
	if !waitAll(grace, live) {
		for _, h := range live {
			if h.Alive() {
				h.logger.Warn().Msg("did not stop, killing")
				h.Kill()
			}
		}
		waitAll(grace, live)
	}
	var stuck []string
	for _, h := range handles {
		if h == nil {
			continue
		}
		if h.Alive() {
			stuck = append(stuck, h.name)
			continue
		}
		h.logger.Debug().Str("status", h.ExitStatus()).Msg("peer stopped")
	}
	if len(stuck) != 0 {
		return fmt.Errorf("peers not reaped: %v", stuck)
	}
	return nil
}

func waitAll(timeout time.Duration, handles []*Handle) bool {
	var timer = time.NewTimer(timeout)
	defer timer.Stop()
	for _, h := range handles {
		select {
		case <-h.Exited():
		case <-timer.C:
			return false
		}
	}
	return true
}
