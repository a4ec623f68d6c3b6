package protocol

import (
	"fmt"
	"strings"

	"github.com/ChizhovVadim/ccheck/pkg/common"
)

type Kind int

const (
	// Request asks the peer for its move: "<".
	Request Kind = iota + 1
	// Inform tells the peer a move was played: ">white:n5-m5".
	Inform
	// Reply is a peer's own move: "white:n5-m5".
	Reply
	// Ack acknowledges an Inform: "ok".
	Ack
)

const (
	requestToken = "<"
	informPrefix = ">"
	ackToken     = "ok"
)

type Command struct {
	Kind Kind
	Side common.Side
	Move string
}

func NewRequest() Command {
	return Command{Kind: Request}
}

func NewInform(side common.Side, move common.Move) Command {
	return Command{Kind: Inform, Side: side, Move: move.String()}
}

func NewReply(side common.Side, move common.Move) Command {
	return Command{Kind: Reply, Side: side, Move: move.String()}
}

func NewResign(side common.Side) Command {
	return Command{Kind: Reply, Side: side, Move: common.ResignText}
}

func NewAck() Command {
	return Command{Kind: Ack}
}

func (c Command) IsResign() bool {
	return c.Kind == Reply && c.Move == common.ResignText
}

// String renders the command without the trailing newline.
func (c Command) String() string {
	switch c.Kind {
	case Request:
		return requestToken
	case Inform:
		return informPrefix + c.Side.String() + ":" + c.Move
	case Reply:
		return c.Side.String() + ":" + c.Move
	case Ack:
		return ackToken
	}
	return ""
}

func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case line == requestToken:
		return NewRequest(), nil
	case line == ackToken:
		return NewAck(), nil
	case strings.HasPrefix(line, informPrefix):
		var side, move, err = parseSideMove(line[len(informPrefix):])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Inform, Side: side, Move: move}, nil
	}
	var side, move, err = parseSideMove(line)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: Reply, Side: side, Move: move}, nil
}

func parseSideMove(s string) (common.Side, string, error) {
	var i = strings.IndexByte(s, ':')
	if i < 0 {
		return common.White, "", fmt.Errorf("missing side label in %q", s)
	}
	var side, err = common.ParseSide(s[:i])
	if err != nil {
		return common.White, "", err
	}
	var move = strings.TrimSpace(s[i+1:])
	if move == "" {
		return common.White, "", fmt.Errorf("empty move in %q", s)
	}
	return side, move, nil
}

// ParseMove decodes the move text of an Inform or Reply and checks it against
// p: the side label must be the side to move and the move must be legal.
func (c Command) ParseMove(p *common.Position) (common.Move, error) {
	if c.Side != p.SideToMove {
		return common.MoveEmpty, fmt.Errorf("%v to move, got move for %v", p.SideToMove, c.Side)
	}
	var m, err = common.ParseMove(c.Move)
	if err != nil {
		return common.MoveEmpty, err
	}
	if !p.IsLegal(m) {
		return common.MoveEmpty, fmt.Errorf("illegal move %v", m)
	}
	return m, nil
}
