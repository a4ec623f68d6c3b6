package child

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/ccheck/pkg/protocol"
)

func spawnShell(t *testing.T, script string) *Handle {
	t.Helper()
	var sh, err = exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	h, err := Spawn("test", sh, []string{"-c", script}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestSpawnTalksOverPipes(t *testing.T) {
	var h = spawnShell(t, `trap "" HUP; echo banner; while read line; do echo "got $line"; done`)
	var ch = h.Channel()
	var ctx = context.Background()

	var line, err = ch.Receive(ctx, 5*time.Second)
	if err != nil || line != "banner" {
		t.Fatal(line, err)
	}
	if err := ch.Send(protocol.NewRequest()); err != nil {
		t.Fatal(err)
	}
	line, err = ch.Receive(ctx, 5*time.Second)
	if err != nil || line != "got <" {
		t.Fatal(line, err)
	}

	h.CloseStreams()
	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit on end of input")
	}
	if h.ExitStatus() != "exited with code 0" || h.ExitCode() != 0 {
		t.Error(h.ExitStatus())
	}
	if _, err = ch.Receive(ctx, time.Second); !errors.Is(err, protocol.ErrClosed) {
		t.Error(err)
	}
}

func TestExitIsLogged(t *testing.T) {
	var sh, err = exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	var buf bytes.Buffer
	h, err := Spawn("test", sh, []string{"-c", "exit 7"}, zerolog.New(&buf).Level(zerolog.InfoLevel))
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit")
	}
	if !strings.Contains(buf.String(), "exited with code 7") {
		t.Errorf("%q", buf.String())
	}
	if h.ExitCode() != 7 {
		t.Error(h.ExitCode())
	}
}

func TestShutdownKillsStubbornChild(t *testing.T) {
	var h = spawnShell(t, `trap "" TERM HUP; echo ready; while :; do sleep 0.05; done`)
	if line, err := h.Channel().Receive(context.Background(), 5*time.Second); err != nil || line != "ready" {
		t.Fatal(line, err)
	}
	var start = time.Now()
	if err := Shutdown(100*time.Millisecond, h, nil); err != nil {
		t.Fatal(err)
	}
	if h.Alive() {
		t.Fatal("child still running")
	}
	if !strings.HasPrefix(h.ExitStatus(), "killed by signal") {
		t.Error(h.ExitStatus())
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Error("shutdown took", elapsed)
	}
}

func TestShutdownPoliteChild(t *testing.T) {
	var h = spawnShell(t, `echo ready; while read line; do :; done`)
	h.Channel().Receive(context.Background(), 5*time.Second)
	if err := Shutdown(time.Second, h); err != nil {
		t.Fatal(err)
	}
	if h.Alive() {
		t.Fatal("child still running")
	}
}

func TestAbsentHandle(t *testing.T) {
	var h *Handle
	if h.Alive() || h.Pid() != 0 || h.Channel() != nil || h.ExitStatus() != "" {
		t.Error("absent handle looks alive")
	}
	if err := h.Wakeup(); err != nil {
		t.Error(err)
	}
	h.CloseStreams()
	select {
	case <-h.Exited():
	default:
		t.Error("absent handle not exited")
	}
	if err := Shutdown(time.Millisecond, h); err != nil {
		t.Error(err)
	}
}
