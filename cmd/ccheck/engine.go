package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/ccheck/pkg/engine"
	"github.com/ChizhovVadim/ccheck/pkg/protocol"
	"github.com/ChizhovVadim/ccheck/pkg/scheduler"
)

// runEngine is the engine process: it answers the referee on stdin/stdout
// and treats SIGHUP as the wakeup signal.
func runEngine(args []string) int {
	var engineOptions = engine.NewOptions()
	var options = scheduler.NewOptions()
	var flags = flag.NewFlagSet(name+" engine", flag.ExitOnError)
	flags.DurationVar(&options.AvgTime, "avg", 0, "average time per move, 0 searches to a fixed depth")
	flags.IntVar(&options.DefaultDepth, "depth", scheduler.DefaultDepth, "search depth when no average time is set")
	flags.BoolVar(&options.Ponder, "ponder", true, "think while the opponent moves")
	flags.BoolVar(&engineOptions.Randomized, "r", false, "randomize the order of equal moves")
	flags.BoolVar(&options.Verbose, "v", false, "log every completed depth")
	flags.IntVar(&engineOptions.Hash, "hash", engineOptions.Hash, "transposition table size in MB")
	flags.Parse(args)

	var logger = newLogger("engine", options.Verbose)

	// The handler must be in place before the banner tells the referee it
	// may signal us.
	var hup = make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	var s = scheduler.New(engine.NewEngine(engineOptions), options, logger)
	fmt.Printf("%s engine %s\n", name, versionName)

	var lines = make(chan string)
	go func() {
		if err := protocol.ReadLines(os.Stdin, lines); err != nil {
			logger.Error().Err(err).Msg("read stdin")
		}
	}()

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	var g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-hup:
				s.Wakeup()
			case <-gctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		defer cancel()
		return s.Run(gctx, lines, os.Stdout)
	})

	var err = g.Wait()
	switch {
	case err == nil || isInterrupted(err):
		return exitOK
	case errors.Is(err, scheduler.ErrProtocolViolation):
		logger.Error().Err(err).Msg("referee broke the protocol")
		return exitProtocolViolation
	default:
		logger.Error().Err(err).Msg("engine failed")
		return exitFatal
	}
}
