package main

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/ccheck/internal/transcript"
	"github.com/ChizhovVadim/ccheck/pkg/common"
	"github.com/ChizhovVadim/ccheck/pkg/engine"
)

func run(
	ctx context.Context,
	config Config,
	openingPaths []string,
	logger zerolog.Logger,
) error {
	logger.Info().
		Int("NumCPU", runtime.NumCPU()).
		Int("GOMAXPROCS", runtime.GOMAXPROCS(0)).
		Int("gameConcurrency", config.Concurrency).
		Msg("arena started")
	defer logger.Info().Msg("arena finished")

	var openings, err = loadOpenings(openingPaths, config.Games, config.OpeningPlies)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	var gameInfos = make(chan gameInfo)
	var gameResults = make(chan gameResult)

	g.Go(func() error {
		defer close(gameInfos)
		return generateGames(ctx, openings, gameInfos)
	})

	g.Go(func() error {
		return showResults(ctx, gameResults, config.OutputDir, logger)
	})

	var wg = &sync.WaitGroup{}

	for i := 0; i < config.Concurrency; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return playGames(ctx, config, gameInfos, gameResults)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(gameResults)
		return nil
	})

	return g.Wait()
}

func playGames(
	ctx context.Context,
	config Config,
	gameInfos <-chan gameInfo,
	gameResults chan<- gameResult,
) error {
	var engineA = newEngine(config.Hash)
	var engineB = newEngine(config.Hash)
	for gameInfo := range gameInfos {
		var res, err = playGame(ctx, engineA, engineB, config.TimeControl, gameInfo)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case gameResults <- res:
		}
	}
	return nil
}

func newEngine(hash int) *engine.Engine {
	var options = engine.NewOptions()
	options.Hash = hash
	options.Randomized = true
	var eng = engine.NewEngine(options)
	eng.Prepare()
	return eng
}

func playGame(
	ctx context.Context,
	engineA, engineB *engine.Engine,
	tc timeControl,
	gameInfo gameInfo,
) (gameResult, error) {
	engineA.Clear()
	engineB.Clear()

	var pos = common.NewInitialPosition()
	var moves []common.Move
	var play = func(m common.Move) error {
		var child common.Position
		if !pos.IsLegal(m) || !pos.MakeMove(m, &child) {
			return fmt.Errorf("game %v: illegal move %v", gameInfo.gameNumber, m)
		}
		pos = child
		moves = append(moves, m)
		return nil
	}

	for _, m := range gameInfo.opening {
		if err := play(m); err != nil {
			return gameResult{}, err
		}
	}

	for {
		if winner, outcome, ok := pos.Result(); ok {
			var result = gameResultWhiteWins
			if winner == common.Black {
				result = gameResultBlackWins
			}
			return gameResult{
				gameInfo: gameInfo,
				moves:    moves,
				comment:  outcome.String(),
				result:   result,
			}, nil
		}
		if len(moves) >= tc.MaxPlies {
			return gameResult{
				gameInfo: gameInfo,
				moves:    moves,
				comment:  "ply limit",
				result:   gameResultDraw,
			}, nil
		}

		var eng, depth = engineB, tc.DepthB
		if (pos.SideToMove == common.White) == gameInfo.engineAIsWhite {
			eng, depth = engineA, tc.DepthA
		}
		var searchResult, err = eng.Search(ctx, &pos, depth)
		if err != nil {
			return gameResult{}, err
		}
		if len(searchResult.Line) == 0 {
			return gameResult{}, fmt.Errorf("game %v: no move at ply %v", gameInfo.gameNumber, len(moves))
		}
		if err := play(searchResult.Line[0]); err != nil {
			return gameResult{}, err
		}
	}
}

func saveGame(dir string, res gameResult) error {
	var w, err = transcript.Create(filepath.Join(dir, fmt.Sprintf("game%04d.txt", res.gameInfo.gameNumber)))
	if err != nil {
		return err
	}
	var side = common.White
	for ply, m := range res.moves {
		if err := w.Write(ply, side, m); err != nil {
			w.Close()
			return err
		}
		side = side.Opponent()
	}
	return w.Close()
}
