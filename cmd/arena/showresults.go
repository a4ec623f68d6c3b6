package main

import (
	"context"
	"math"

	"github.com/rs/zerolog"
)

func showResults(
	ctx context.Context,
	gameResults <-chan gameResult,
	outputDir string,
	logger zerolog.Logger,
) error {
	var games = 0
	var wins, losses, draws int
	for gameResult := range gameResults {
		games++
		if outputDir != "" {
			if err := saveGame(outputDir, gameResult); err != nil {
				return err
			}
		}
		logger.Info().
			Int("game", gameResult.gameInfo.gameNumber).
			Int("plies", len(gameResult.moves)).
			Msgf("Finished: %v {%v}", gameResultString(gameResult.result), gameResult.comment)
		switch score(gameResult) {
		case 1:
			wins++
		case -1:
			losses++
		default:
			draws++
		}
		var stat = computeStat(wins, losses, draws)
		logger.Info().Msgf("Score: %v - %v - %v  [%.3f] %v",
			wins, losses, draws, stat.winningFraction, games)
		logger.Info().Msgf("Elo difference: %.1f, LOS: %.1f %%",
			stat.eloDifference, stat.los*100)
	}
	return nil
}

// score is the result from the point of view of engine A.
func score(res gameResult) int {
	switch {
	case res.result == gameResultDraw:
		return 0
	case (res.result == gameResultWhiteWins) == res.gameInfo.engineAIsWhite:
		return 1
	default:
		return -1
	}
}

type GameStatistics struct {
	winningFraction float64
	eloDifference   float64
	los             float64
}

//https://www.chessprogramming.org/Match_Statistics
func computeStat(wins, losses, draws int) GameStatistics {
	var games = wins + losses + draws
	var winningFraction = (float64(wins) + 0.5*float64(draws)) / float64(games)
	var eloDifference = -math.Log(1/winningFraction-1) * 400 / math.Ln10
	var los = 0.5 + 0.5*math.Erf(float64(wins-losses)/math.Sqrt(2*float64(wins+losses)))
	return GameStatistics{
		winningFraction: winningFraction,
		eloDifference:   eloDifference,
		los:             los,
	}
}

func gameResultString(v int) string {
	switch v {
	case gameResultWhiteWins:
		return "1-0"
	case gameResultBlackWins:
		return "0-1"
	case gameResultDraw:
		return "1/2-1/2"
	}
	return ""
}
