package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/lox/tycoon/internal/config"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/randutil"
	"github.com/lox/tycoon/internal/session"
	"github.com/lox/tycoon/internal/transport"
	"golang.org/x/sync/errgroup"
)

// HostCmd hosts a table and seats the local player at it
type HostCmd struct {
	Config   string `short:"c" long:"config" default:"tycoon.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Address to listen on, host:port (overrides config)"`
	Name     string `short:"n" long:"name" help:"Your display name (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Seed     *int64 `help:"Deterministic RNG seed for the deck (overrides config)"`
	Bots     int    `short:"b" help:"Number of extra bots to seat"`
}

func (c *HostCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Name != "" {
		cfg.Host.Name = c.Name
	}
	if c.LogLevel != "" {
		cfg.Host.LogLevel = c.LogLevel
	}
	if c.Seed != nil {
		cfg.Game.Seed = c.Seed
	}
	for i, n := 0, len(cfg.Bots); i < c.Bots; i++ {
		cfg.Bots = append(cfg.Bots, config.BotSettings{Name: fmt.Sprintf("Bot %d", n+i+1)})
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	addr := cfg.Addr()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger := newLogger(cfg.Host.LogLevel)
	seed := randutil.Resolve(cfg.Game.Seed)
	logger.Info("Starting table", "addr", addr, "name", cfg.Host.Name, "seed", seed, "bots", len(cfg.Bots))

	id := "host-" + uuid.NewString()[:8]
	hub := transport.NewHub(nil, logger)
	host, err := session.NewHost(session.HostConfig{
		ID:        id,
		Name:      cfg.Host.Name,
		Settings:  cfg.Game,
		Transport: hub,
		Rand:      randutil.New(seed),
		Logger:    logger,
		OnUpdate:  printer(os.Stdout, id),
	})
	if err != nil {
		return err
	}
	hub.Serve(host)

	for _, b := range cfg.Bots {
		if _, err := host.AddBot(b.Name); err != nil {
			return fmt.Errorf("seat bot %s: %w", b.Name, err)
		}
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	cons := newConsole(os.Stdout, host, id, host.View)
	cons.handle("start", "start          deal a new round", func([]string) error {
		return host.StartRound()
	})
	cons.handle("lobby", "lobby          reopen seating after a round", func([]string) error {
		return host.OpenLobby()
	})
	cons.handle("addbot", "addbot [name]  seat a bot in the lobby", func(args []string) error {
		_, err := host.AddBot(strings.Join(args, " "))
		return err
	})
	cons.handle("removebot", "removebot <name>  unseat a bot in the lobby", func(args []string) error {
		botID, err := botByName(host.View(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return host.RemoveBot(botID)
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.ListenAndServe(ctx, addr)
	})
	g.Go(func() error {
		if err := host.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		host.Close()
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return cons.run(ctx, os.Stdin)
	})
	return g.Wait()
}

// botByName finds a bot by display name or id
func botByName(s *game.GameState, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("removebot needs a bot name")
	}
	for _, p := range s.Players {
		if p.IsBot && (strings.EqualFold(p.Name, name) || p.ID == name) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", game.ErrUnknownPlayer, name)
}
