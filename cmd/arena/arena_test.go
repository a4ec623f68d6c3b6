package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ChizhovVadim/ccheck/internal/transcript"
	"github.com/ChizhovVadim/ccheck/pkg/common"
)

func TestComputeStat(t *testing.T) {
	var stat = computeStat(10, 10, 5)
	if stat.winningFraction != 0.5 || math.Abs(stat.eloDifference) > 1e-9 || stat.los != 0.5 {
		t.Error(stat)
	}
	stat = computeStat(30, 10, 0)
	if stat.eloDifference < 190 || stat.eloDifference > 192 || stat.los < 0.99 {
		t.Error(stat)
	}
}

func TestScore(t *testing.T) {
	var tests = []struct {
		result         int
		engineAIsWhite bool
		want           int
	}{
		{gameResultWhiteWins, true, 1},
		{gameResultWhiteWins, false, -1},
		{gameResultBlackWins, false, 1},
		{gameResultBlackWins, true, -1},
		{gameResultDraw, true, 0},
	}
	for _, test := range tests {
		var res = gameResult{result: test.result, gameInfo: gameInfo{engineAIsWhite: test.engineAIsWhite}}
		if got := score(res); got != test.want {
			t.Error(test, got)
		}
	}
}

func TestRandomOpening(t *testing.T) {
	var opening = randomOpening(6)
	if len(opening) != 6 {
		t.Fatal(opening)
	}
	var pos = common.NewInitialPosition()
	for _, m := range opening {
		var child common.Position
		if !pos.MakeMove(m, &child) {
			t.Fatal("illegal", m)
		}
		pos = child
	}
}

func TestPlayGameHitsPlyLimit(t *testing.T) {
	var tc = timeControl{DepthA: 1, DepthB: 1, MaxPlies: 10}
	var res, err = playGame(context.Background(), newEngine(1), newEngine(1), tc,
		gameInfo{opening: randomOpening(2), engineAIsWhite: true, gameNumber: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.result != gameResultDraw || len(res.moves) != 10 || res.comment != "ply limit" {
		t.Error(res.result, len(res.moves), res.comment)
	}

	var dir = t.TempDir()
	if err := saveGame(dir, res); err != nil {
		t.Fatal(err)
	}
	entries, err := transcript.Load(filepath.Join(dir, "game0001.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(res.moves) {
		t.Fatal(len(entries))
	}
	for i, entry := range entries {
		if entry.Move != res.moves[i] {
			t.Error(i, entry.Move, res.moves[i])
		}
	}

	openings, err := loadOpenings([]string{filepath.Join(dir, "game0001.txt")}, 0, 0)
	if err != nil || len(openings) != 1 || len(openings[0]) != 10 {
		t.Error(openings, err)
	}
}

func TestLoadOpeningsRejectsIllegal(t *testing.T) {
	var tests = []string{
		"1. white:n5-k5\n",
		"1. black:n5-m5\n",
		"n5-m5\nn6-m6\n",
	}
	for _, text := range tests {
		var path = filepath.Join(t.TempDir(), "bad.txt")
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := loadOpenings([]string{path}, 0, 0); err == nil {
			t.Errorf("%q accepted", text)
		}
	}
}

func TestPlayGameRejectsIllegalOpening(t *testing.T) {
	var bad, _ = common.ParseMove("n5-k5")
	var tc = timeControl{DepthA: 1, DepthB: 1, MaxPlies: 10}
	var _, err = playGame(context.Background(), newEngine(1), newEngine(1), tc,
		gameInfo{opening: []common.Move{bad}, engineAIsWhite: true, gameNumber: 1})
	if err == nil {
		t.Error("illegal opening played")
	}
}
