package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/lox/tycoon/internal/randutil"
	"github.com/lox/tycoon/internal/simulator"
)

// SimulateCmd plays bot-only rounds as fast as possible
type SimulateCmd struct {
	Rounds   int    `default:"10000" help:"Number of rounds to simulate"`
	Players  int    `short:"p" default:"4" help:"Bots at each table (2-6)"`
	Workers  int    `short:"w" help:"Parallel tables (defaults to one per CPU)"`
	Seed     *int64 `help:"RNG seed (random when unset)"`
	MaxTurns int    `default:"1000" help:"Turns after which a round is abandoned as stalled"`
	Output   string `short:"o" help:"Also write a JSON report to this file"`
	Verbose  bool   `help:"Verbose logging"`
}

func (c *SimulateCmd) Run() error {
	level := "info"
	if c.Verbose {
		level = "debug"
	}
	logger := newLogger(level)

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	seed := randutil.Resolve(c.Seed)

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	stats, err := simulator.New(simulator.Config{
		Rounds:   c.Rounds,
		Players:  c.Players,
		Workers:  workers,
		Seed:     seed,
		MaxTurns: c.MaxTurns,
		Logger:   logger,
	}).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("Simulation complete", "rounds", stats.Rounds, "seed", seed, "elapsed", time.Since(start).Round(time.Millisecond))
	simulator.PrintSummary(os.Stdout, stats, c.Players)

	if c.Output != "" {
		if err := simulator.WriteReport(c.Output, seed, c.Players, stats); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("Wrote report", "path", c.Output)
	}
	return nil
}
