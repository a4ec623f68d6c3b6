package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

type Config struct {
	Concurrency  int
	Games        int
	OpeningPlies int
	Hash         int
	OutputDir    string
	TimeControl  timeControl
}

func main() {
	var config Config
	flag.IntVar(&config.Concurrency, "concurrency", 4, "Number of threads")
	flag.IntVar(&config.Games, "games", 100, "Number of random openings, each played with both colours")
	flag.IntVar(&config.OpeningPlies, "openingplies", 4, "Length of a random opening")
	flag.IntVar(&config.Hash, "hash", 16, "Transposition table size in MB per engine")
	flag.StringVar(&config.OutputDir, "o", "", "Write the transcript of every game to this directory")
	flag.IntVar(&config.TimeControl.DepthA, "deptha", 4, "Search depth of engine A")
	flag.IntVar(&config.TimeControl.DepthB, "depthb", 3, "Search depth of engine B")
	flag.IntVar(&config.TimeControl.MaxPlies, "maxplies", 400, "Adjudicate a draw after this many plies")
	flag.Parse()

	var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().
		Timestamp().
		Logger()
	logger.Info().Interface("config", config).Msg("arena")

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Positional arguments are transcripts to use as openings.
	var err = run(ctx, config, flag.Args(), logger)
	if err != nil {
		logger.Error().Err(err).Msg("arena failed")
		os.Exit(1)
	}
}
