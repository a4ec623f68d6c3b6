package protocol

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ChizhovVadim/ccheck/pkg/common"
)

func TestParse(t *testing.T) {
	var tests = []struct {
		line string
		want Command
	}{
		{"<", Command{Kind: Request}},
		{"ok", Command{Kind: Ack}},
		{">white:n5-m5", Command{Kind: Inform, Side: common.White, Move: "n5-m5"}},
		{">black:d10-e10\r\n", Command{Kind: Inform, Side: common.Black, Move: "d10-e10"}},
		{"black:d10-e10", Command{Kind: Reply, Side: common.Black, Move: "d10-e10"}},
		{"white:resign", Command{Kind: Reply, Side: common.White, Move: common.ResignText}},
	}
	for _, test := range tests {
		var cmd, err = Parse(test.line)
		if err != nil {
			t.Error(test.line, err)
			continue
		}
		if cmd != test.want {
			t.Error(test.line, cmd, test.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, line := range []string{"", ">", "n5-m5", "red:n5-m5", "white:", ">white", "<<"} {
		if _, err := Parse(line); err == nil {
			t.Error("parsed", line)
		}
	}
}

func TestCommandString(t *testing.T) {
	var m, _ = common.ParseMove("n5-m5")
	var tests = []struct {
		cmd  Command
		want string
	}{
		{NewRequest(), "<"},
		{NewAck(), "ok"},
		{NewInform(common.White, m), ">white:n5-m5"},
		{NewReply(common.White, m), "white:n5-m5"},
		{NewResign(common.Black), "black:resign"},
	}
	for _, test := range tests {
		if test.cmd.String() != test.want {
			t.Error(test.cmd.String(), test.want)
		}
		var parsed, err = Parse(test.cmd.String())
		if err != nil || parsed != test.cmd {
			t.Error(test.want, parsed, err)
		}
	}
	if !NewResign(common.Black).IsResign() {
		t.Error("resign not recognised")
	}
}

func TestCommandParseMove(t *testing.T) {
	var p = common.NewInitialPosition()
	var tests = []struct {
		line string
		ok   bool
	}{
		{"white:n5-m5", true},
		{"black:n5-m5", false},
		{"white:n5-l5", false},
		{"white:zz", false},
	}
	for _, test := range tests {
		var cmd, err = Parse(test.line)
		if err != nil {
			t.Fatal(err)
		}
		var _, moveErr = cmd.ParseMove(&p)
		if (moveErr == nil) != test.ok {
			t.Error(test.line, moveErr)
		}
	}
}

func TestChannelSendWakesPeer(t *testing.T) {
	var out bytes.Buffer
	var wakeups = 0
	var lines = make(chan string, 1)
	var ch = NewChannel("engine", &out, lines, func() error {
		// the line must already be flushed when the peer is woken
		if !strings.HasSuffix(out.String(), "<\n") {
			t.Error("wakeup before write")
		}
		wakeups++
		return nil
	})
	if err := ch.Send(NewRequest()); err != nil {
		t.Fatal(err)
	}
	if wakeups != 1 || out.String() != "<\n" {
		t.Error(wakeups, out.String())
	}
}

func TestChannelReceive(t *testing.T) {
	var lines = make(chan string, 2)
	var ch = NewChannel("display", &bytes.Buffer{}, lines, nil)
	var ctx = context.Background()

	lines <- "white:n5-m5"
	var cmd, err = ch.ReceiveCommand(ctx, time.Second)
	if err != nil || cmd.Kind != Reply {
		t.Fatal(cmd, err)
	}

	if _, err = ch.Receive(ctx, 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Error(err)
	}

	lines <- "garbage"
	_, err = ch.ReceiveCommand(ctx, time.Second)
	var protocolErr *ProtocolError
	if !errors.As(err, &protocolErr) || protocolErr.Peer != "display" {
		t.Error(err)
	}

	var cancelled, cancel = context.WithCancel(ctx)
	cancel()
	if _, err = ch.Receive(cancelled, 0); !errors.Is(err, context.Canceled) {
		t.Error(err)
	}

	close(lines)
	if _, err = ch.Receive(ctx, 0); !errors.Is(err, ErrClosed) {
		t.Error(err)
	}
}

func TestReadLines(t *testing.T) {
	var lines = make(chan string, 4)
	if err := ReadLines(strings.NewReader("a\nb\n\nc"), lines); err != nil {
		t.Fatal(err)
	}
	var got []string
	for line := range lines {
		got = append(got, line)
	}
	if strings.Join(got, ",") != "a,b,,c" {
		t.Error(got)
	}
}
