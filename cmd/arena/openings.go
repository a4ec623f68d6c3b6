package main

import (
	"context"
	"fmt"

	"lukechampine.com/frand"

	"github.com/ChizhovVadim/ccheck/internal/transcript"
	"github.com/ChizhovVadim/ccheck/pkg/common"
)

// loadOpenings reads every transcript in paths. Without paths it makes count
// random openings of the given length instead.
func loadOpenings(paths []string, count, plies int) ([][]common.Move, error) {
	if len(paths) == 0 {
		var result = make([][]common.Move, 0, count)
		for i := 0; i < count; i++ {
			result = append(result, randomOpening(plies))
		}
		return result, nil
	}
	var result [][]common.Move
	for _, path := range paths {
		var entries, err = transcript.Load(path)
		if err != nil {
			return nil, err
		}
		var opening, pos = make([]common.Move, 0, len(entries)), common.NewInitialPosition()
		for _, entry := range entries {
			if entry.HasSide && entry.Side != pos.SideToMove {
				return nil, fmt.Errorf("%v: line %v: %v to move", path, entry.Line, pos.SideToMove)
			}
			var child common.Position
			if !pos.IsLegal(entry.Move) || !pos.MakeMove(entry.Move, &child) {
				return nil, fmt.Errorf("%v: line %v: illegal move %v", path, entry.Line, entry.Move)
			}
			pos = child
			opening = append(opening, entry.Move)
		}
		result = append(result, opening)
	}
	return result, nil
}

func randomOpening(plies int) []common.Move {
	var pos = common.NewInitialPosition()
	var buffer [common.MaxMoves]common.Move
	var opening []common.Move
	for len(opening) < plies && !pos.IsTerminal() {
		var ml = pos.GenerateMoves(buffer[:])
		var m = ml[frand.Intn(len(ml))]
		var child common.Position
		pos.MakeMove(m, &child)
		pos = child
		opening = append(opening, m)
	}
	return opening
}

// generateGames plays each opening twice so that both engines get each side.
func generateGames(
	ctx context.Context,
	openings [][]common.Move,
	gameInfos chan<- gameInfo,
) error {
	var gameNumber = 0
	for _, opening := range openings {
		for _, engineAIsWhite := range [...]bool{true, false} {
			gameNumber++
			select {
			case <-ctx.Done():
				return ctx.Err()
			case gameInfos <- gameInfo{
				opening:        opening,
				engineAIsWhite: engineAIsWhite,
				gameNumber:     gameNumber,
			}:
			}
		}
	}
	return nil
}
