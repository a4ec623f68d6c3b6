package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/ccheck/internal/referee"
	"github.com/ChizhovVadim/ccheck/internal/spectate"
)

/*
Counter Copyright (C) 2017-2023 Vadim Chizhov
This program is free software: you can redistribute it and/or modify it under the terms of the GNU General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
This program is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License for more details.
You should have received a copy of the GNU General Public License along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

const name = "ccheck"

var (
	versionName = "dev"
	buildDate   = "(null)"
	gitRevision = "(null)"
)

const (
	exitOK                = 0
	exitFatal             = 1
	exitProtocolViolation = 3
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "engine":
			os.Exit(runEngine(os.Args[2:]))
		case "display":
			os.Exit(runDisplay(os.Args[2:]))
		}
	}
	os.Exit(runReferee(os.Args[1:]))
}

type Config struct {
	EngineWhite bool
	EngineBlack bool
	Randomized  bool
	Verbose     bool
	NoDisplay   bool
	Tournament  bool
	AvgSeconds  float64
	HistoryPath string
	OutputPath  string
	WatchAddr   string
	Hash        int
}

func runReferee(args []string) int {
	var config Config
	var flags = flag.NewFlagSet(name, flag.ExitOnError)
	flags.BoolVar(&config.EngineWhite, "w", false, "engine plays white")
	flags.BoolVar(&config.EngineBlack, "b", false, "engine plays black")
	flags.BoolVar(&config.Randomized, "r", false, "randomized engine play")
	flags.BoolVar(&config.Verbose, "v", false, "verbose output")
	flags.BoolVar(&config.NoDisplay, "d", false, "run without the display")
	flags.BoolVar(&config.Tournament, "t", false, "tournament mode: print engine moves as @@@side:move")
	flags.Float64Var(&config.AvgSeconds, "a", 0, "average engine time per move in seconds")
	flags.StringVar(&config.HistoryPath, "i", "", "replay the moves in this file first")
	flags.StringVar(&config.OutputPath, "o", "", "write the game transcript to this file")
	flags.StringVar(&config.WatchAddr, "watch", "", "serve a spectator feed on this address")
	flags.IntVar(&config.Hash, "hash", 16, "engine transposition table size in MB")
	flags.Parse(args)

	var logger = newLogger("referee", config.Verbose)
	logger.Info().
		Str("version", versionName).
		Str("buildDate", buildDate).
		Str("gitRevision", gitRevision).
		Str("runtime", runtime.Version()).
		Interface("config", config).
		Msg(name)

	var exe, err = os.Executable()
	if err != nil {
		logger.Error().Err(err).Msg("locate executable")
		return exitFatal
	}
	var avg = time.Duration(config.AvgSeconds * float64(time.Second))
	var engineCmd = []string{exe, "engine", "-hash", fmt.Sprint(config.Hash)}
	if avg > 0 {
		engineCmd = append(engineCmd, "-avg", avg.String())
	}
	if config.Randomized {
		engineCmd = append(engineCmd, "-r")
	}
	if config.Verbose {
		engineCmd = append(engineCmd, "-v")
	}

	var observers []referee.Observer
	var hub *spectate.Hub
	if config.WatchAddr != "" {
		hub = spectate.NewHub(logger.With().Str("component", "spectate").Logger())
		observers = append(observers, hub)
	}
	var r = referee.New(referee.Config{
		EngineWhite:    config.EngineWhite,
		EngineBlack:    config.EngineBlack,
		NoDisplay:      config.NoDisplay,
		Tournament:     config.Tournament,
		AvgTime:        avg,
		HistoryPath:    config.HistoryPath,
		TranscriptPath: config.OutputPath,
		EngineCmd:      engineCmd,
		DisplayCmd:     []string{exe, "display"},
	}, logger, observers...)

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	var gameCtx, gameOver = context.WithCancel(ctx)
	g.Go(func() error {
		defer gameOver()
		_, err := r.Run(ctx)
		return err
	})
	if hub != nil {
		g.Go(func() error {
			return hub.Serve(gameCtx, config.WatchAddr)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("game aborted")
		return exitFatal
	}
	return exitOK
}

func newLogger(component string, verbose bool) zerolog.Logger {
	var level = zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
