// Package config loads the HCL configuration shared by the tycoon commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the resolved configuration with every default applied
type Config struct {
	Host HostSettings
	Game GameSettings
	Bots []BotSettings
}

// HostSettings controls the hosting process
type HostSettings struct {
	Address  string
	Port     int
	Name     string
	LogLevel string
}

// GameSettings controls table limits and pacing
type GameSettings struct {
	MaxPlayers   int
	MinPlayers   int
	TurnLimit    time.Duration
	ShuffleDelay time.Duration
	DealDelay    time.Duration
	DeadlinePoll time.Duration
	BotThinkMin  time.Duration
	BotThinkMax  time.Duration
	Seed         *int64
}

// BotSettings seats a bot when the host opens its lobby
type BotSettings struct {
	Name string
}

// fileConfig is the schema of the HCL file. Every block and attribute is
// optional.
type fileConfig struct {
	Host *hostBlock `hcl:"host,block"`
	Game *gameBlock `hcl:"game,block"`
	Bots []botBlock `hcl:"bot,block"`
}

type hostBlock struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	Name     string `hcl:"name,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

type gameBlock struct {
	MaxPlayers   int    `hcl:"max_players,optional"`
	MinPlayers   int    `hcl:"min_players,optional"`
	TurnLimit    string `hcl:"turn_limit,optional"`
	ShuffleDelay string `hcl:"shuffle_delay,optional"`
	DealDelay    string `hcl:"deal_delay,optional"`
	DeadlinePoll string `hcl:"deadline_poll,optional"`
	BotThinkMin  string `hcl:"bot_think_min,optional"`
	BotThinkMax  string `hcl:"bot_think_max,optional"`
	Seed         *int64 `hcl:"seed,optional"`
}

type botBlock struct {
	Name string `hcl:"name,label"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Host: HostSettings{
			Address:  "0.0.0.0",
			Port:     7777,
			Name:     "Host",
			LogLevel: "info",
		},
		Game: GameSettings{
			MaxPlayers:   6,
			MinPlayers:   2,
			TurnLimit:    30 * time.Second,
			ShuffleDelay: 2 * time.Second,
			DealDelay:    1500 * time.Millisecond,
			DeadlinePoll: time.Second,
			BotThinkMin:  time.Second,
			BotThinkMax:  2 * time.Second,
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and fills in defaults for anything left unset
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()

	if h := raw.Host; h != nil {
		if h.Address != "" {
			cfg.Host.Address = h.Address
		}
		if h.Port != 0 {
			cfg.Host.Port = h.Port
		}
		if h.Name != "" {
			cfg.Host.Name = h.Name
		}
		if h.LogLevel != "" {
			cfg.Host.LogLevel = h.LogLevel
		}
	}

	if g := raw.Game; g != nil {
		if g.MaxPlayers != 0 {
			cfg.Game.MaxPlayers = g.MaxPlayers
		}
		if g.MinPlayers != 0 {
			cfg.Game.MinPlayers = g.MinPlayers
		}
		cfg.Game.Seed = g.Seed

		durations := []struct {
			name  string
			value string
			into  *time.Duration
		}{
			{"turn_limit", g.TurnLimit, &cfg.Game.TurnLimit},
			{"shuffle_delay", g.ShuffleDelay, &cfg.Game.ShuffleDelay},
			{"deal_delay", g.DealDelay, &cfg.Game.DealDelay},
			{"deadline_poll", g.DeadlinePoll, &cfg.Game.DeadlinePoll},
			{"bot_think_min", g.BotThinkMin, &cfg.Game.BotThinkMin},
			{"bot_think_max", g.BotThinkMax, &cfg.Game.BotThinkMax},
		}
		for _, d := range durations {
			if d.value == "" {
				continue
			}
			v, err := time.ParseDuration(d.value)
			if err != nil {
				return nil, fmt.Errorf("game.%s: %w", d.name, err)
			}
			*d.into = v
		}
	}

	for _, b := range raw.Bots {
		cfg.Bots = append(cfg.Bots, BotSettings{Name: b.Name})
	}

	return cfg, nil
}

// Validate checks the configuration for values the game cannot run with
func (c *Config) Validate() error {
	if c.Host.Port < 1 || c.Host.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Host.Port)
	}

	switch c.Host.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Host.LogLevel)
	}

	g := c.Game
	if g.MinPlayers < 2 {
		return fmt.Errorf("min players must be at least 2")
	}
	if g.MaxPlayers < g.MinPlayers || g.MaxPlayers > 6 {
		return fmt.Errorf("max players must be between %d and 6", g.MinPlayers)
	}
	if g.TurnLimit <= 0 {
		return fmt.Errorf("turn limit must be positive")
	}
	if g.DeadlinePoll <= 0 {
		return fmt.Errorf("deadline poll must be positive")
	}
	if g.ShuffleDelay < 0 || g.DealDelay < 0 {
		return fmt.Errorf("round delays must not be negative")
	}
	if g.BotThinkMin < 0 || g.BotThinkMax < g.BotThinkMin {
		return fmt.Errorf("bot think range %s..%s is invalid", g.BotThinkMin, g.BotThinkMax)
	}

	if len(c.Bots) >= g.MaxPlayers {
		return fmt.Errorf("%d bots leave no seat for the host", len(c.Bots))
	}
	seen := map[string]bool{}
	for _, b := range c.Bots {
		if b.Name == "" {
			return fmt.Errorf("bot name must not be empty")
		}
		if seen[b.Name] {
			return fmt.Errorf("bot %s configured twice", b.Name)
		}
		seen[b.Name] = true
	}

	return nil
}

// Addr returns the listen address for the host
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host.Address, c.Host.Port)
}
