package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	ErrClosed  = errors.New("peer closed its stream")
	ErrTimeout = errors.New("peer did not answer in time")
)

// ProtocolError is a malformed or illegal line received from a peer.
type ProtocolError struct {
	Peer   string
	Line   string
	Reason error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation by %s: %q: %v", e.Peer, e.Line, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Reason
}

// Channel is one half-duplex link to a peer: commands go out on w, each
// followed by the wakeup signal, and the peer's lines arrive on lines.
type Channel struct {
	name   string
	w      *bufio.Writer
	lines  <-chan string
	wakeup func() error
}

func NewChannel(name string, w io.Writer, lines <-chan string, wakeup func() error) *Channel {
	return &Channel{
		name:   name,
		w:      bufio.NewWriter(w),
		lines:  lines,
		wakeup: wakeup,
	}
}

func (ch *Channel) Name() string {
	return ch.name
}

// Write sends one command line without waking the peer.
func (ch *Channel) Write(cmd Command) error {
	if _, err := ch.w.WriteString(cmd.String() + "\n"); err != nil {
		return fmt.Errorf("write to %s: %w", ch.name, err)
	}
	if err := ch.w.Flush(); err != nil {
		return fmt.Errorf("write to %s: %w", ch.name, err)
	}
	return nil
}

func (ch *Channel) Wakeup() error {
	if ch.wakeup == nil {
		return nil
	}
	if err := ch.wakeup(); err != nil {
		return fmt.Errorf("wake %s: %w", ch.name, err)
	}
	return nil
}

// Send writes the command and then raises the wakeup signal.
func (ch *Channel) Send(cmd Command) error {
	if err := ch.Write(cmd); err != nil {
		return err
	}
	return ch.Wakeup()
}

// Receive waits for the next line. A zero timeout waits until ctx is done or
// the peer's stream ends.
func (ch *Channel) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		var timer = time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case line, ok := <-ch.lines:
		if !ok {
			return "", fmt.Errorf("%s: %w", ch.name, ErrClosed)
		}
		return line, nil
	case <-expired:
		return "", fmt.Errorf("%s: %w", ch.name, ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (ch *Channel) ReceiveCommand(ctx context.Context, timeout time.Duration) (Command, error) {
	var line, err = ch.Receive(ctx, timeout)
	if err != nil {
		return Command{}, err
	}
	cmd, err := Parse(line)
	if err != nil {
		return Command{}, &ProtocolError{Peer: ch.name, Line: line, Reason: err}
	}
	return cmd, nil
}

// ReadLines copies newline-terminated lines from r into lines and closes it
// when r is exhausted.
func ReadLines(r io.Reader, lines chan<- string) error {
	defer close(lines)
	var scanner = bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	return scanner.Err()
}
