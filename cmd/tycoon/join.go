package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/session"
	"github.com/lox/tycoon/internal/transport"
	"golang.org/x/sync/errgroup"
)

// JoinCmd connects to a hosted table as a player
type JoinCmd struct {
	URL      string `arg:"" help:"Host address, e.g. ws://192.168.1.20:7777"`
	Name     string `short:"n" long:"name" default:"Player" help:"Your display name"`
	LogLevel string `short:"l" long:"log-level" default:"info" help:"Log level"`
}

func (c *JoinCmd) Run() error {
	logger := newLogger(c.LogLevel)
	ctx, cancel := signalContext(logger)
	defer cancel()

	id := "peer-" + uuid.NewString()[:8]
	replica := session.NewReplica(id, c.Name, logger, printer(os.Stdout, id))

	client, err := transport.Dial(ctx, c.URL, id, replica, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.URL, err)
	}
	defer func() { _ = client.Close() }()
	replica.Attach(client)

	if err := replica.Join(); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}
	logger.Info("Joined table", "host", c.URL, "id", id, "name", c.Name)

	view := func() *game.GameState {
		if s := replica.State(); s != nil {
			return s
		}
		return game.New()
	}
	cons := newConsole(os.Stdout, replica, id, view)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-client.Done():
			logger.Warn("Connection to host lost")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return cons.run(ctx, os.Stdin)
	})
	err = g.Wait()

	if leaveErr := replica.Leave(); leaveErr != nil {
		logger.Debug("Could not say goodbye", "error", leaveErr)
	}
	return err
}
