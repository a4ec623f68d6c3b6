package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/ccheck/internal/display"
	"github.com/ChizhovVadim/ccheck/pkg/protocol"
)

func runDisplay(args []string) int {
	var verbose bool
	var flags = flag.NewFlagSet(name+" display", flag.ExitOnError)
	flags.BoolVar(&verbose, "v", false, "verbose output")
	flags.Parse(args)

	// The terminal belongs to the board, so only warnings go to stderr.
	var logger = newLogger("display", verbose)
	if !verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}

	var hup = make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	var screen, closeScreen, err = display.OpenTerminal()
	if err != nil {
		logger.Error().Err(err).Msg("open terminal")
		return exitFatal
	}

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var d = display.New(screen, logger)
	go func() {
		for {
			select {
			case <-hup:
				d.Wakeup()
			case <-ctx.Done():
				return
			}
		}
	}()
	fmt.Println(display.Banner)

	var lines = make(chan string)
	go protocol.ReadLines(os.Stdin, lines)
	err = d.Run(ctx, lines, display.PollEvents(ctx), os.Stdout)
	cancel()
	closeScreen()
	if err != nil && !isInterrupted(err) {
		logger.Error().Err(err).Msg("display failed")
		return exitFatal
	}
	return exitOK
}
