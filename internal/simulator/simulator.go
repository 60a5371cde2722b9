// Package simulator plays bot-only rounds without a network or clock to
// measure the bot and to shake out rule bugs.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/tycoon/internal/bot"
	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/fileutil"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/randutil"
	"github.com/lox/tycoon/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxTurns caps a round that never ends
const DefaultMaxTurns = 1000

// ErrInvariant is returned when a round produces an inconsistent snapshot
var ErrInvariant = errors.New("invariant violated")

// Config holds configuration for running simulations
type Config struct {
	Rounds   int
	Players  int
	Workers  int
	Seed     int64
	MaxTurns int
	Logger   *log.Logger
}

// Simulator plays rounds across a pool of workers. Each worker plays its
// share as one match, so the loser of one round deals the next.
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Players == 0 {
		config.Players = game.MaxPlayers
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxTurns <= 0 {
		config.MaxTurns = DefaultMaxTurns
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}
}

// Run plays every round and returns the merged statistics
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if s.config.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", s.config.Rounds)
	}
	if s.config.Players < game.MinPlayers || s.config.Players > game.MaxPlayers {
		return nil, fmt.Errorf("players must be between %d and %d, got %d",
			game.MinPlayers, game.MaxPlayers, s.config.Players)
	}

	workers := min(s.config.Workers, s.config.Rounds)
	perWorker := s.config.Rounds / workers
	remainder := s.config.Rounds % workers

	results := make([]*statistics.Statistics, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		rounds := perWorker
		if w < remainder {
			rounds++
		}
		seed := s.config.Seed + int64(w)

		g.Go(func() error {
			stats, err := s.playMatch(ctx, seed, rounds)
			if err != nil {
				return fmt.Errorf("worker %d (seed %d): %w", w, seed, err)
			}
			results[w] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &statistics.Statistics{}
	for _, r := range results {
		total.Merge(r)
	}
	if err := total.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return total, nil
}

// playMatch plays rounds back to back at one table
func (s *Simulator) playMatch(ctx context.Context, seed int64, rounds int) (*statistics.Statistics, error) {
	rng := randutil.New(seed)
	logger := s.config.Logger.With("seed", seed)
	b := bot.New(randutil.Child(rng), logger, 0, 0)

	state := game.New()
	for i := range s.config.Players {
		var err error
		state, err = game.Join(state, game.Player{
			ID:    fmt.Sprintf("bot-%d", i+1),
			Name:  fmt.Sprintf("Bot %d", i+1),
			IsBot: true,
		}, game.MaxPlayers)
		if err != nil {
			return nil, err
		}
	}

	stats := &statistics.Statistics{}
	for range rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, result, err := s.playRound(state, rng, b)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", state.Round+1, err)
		}
		result.Seed = seed
		if result.Stalled {
			logger.Warn("Round stalled", "round", result.Round, "turns", result.Turns)
			// abandon the round but keep the table
			next.Status = game.StatusGameOver
			next.CurrentPlayerID = ""
		}
		stats.Add(result)
		state = next
	}
	return stats, nil
}

// playRound deals and plays one round to completion or stall
func (s *Simulator) playRound(state *game.GameState, rng *rand.Rand, b *bot.Bot) (*game.GameState, statistics.RoundResult, error) {
	var zero time.Time

	state, opener, err := game.StartRound(state, rng, game.MinPlayers)
	if err != nil {
		return nil, statistics.RoundResult{}, err
	}
	if state, err = game.BeginDealing(state); err != nil {
		return nil, statistics.RoundResult{}, err
	}
	if state, err = game.BeginPlay(state, opener, zero); err != nil {
		return nil, statistics.RoundResult{}, err
	}
	if state.TotalCards() != deck.Size {
		return nil, statistics.RoundResult{}, fmt.Errorf("%w: dealt %d cards", ErrInvariant, state.TotalCards())
	}

	result := statistics.RoundResult{Round: state.Round, Players: len(state.Players)}
	idle := 0 // consecutive passes with nothing on the table
	for state.Status == game.StatusPlaying {
		if result.Turns >= s.config.MaxTurns || idle >= state.ActiveCount() {
			result.Stalled = true
			return state, result, nil
		}

		cur := state.CurrentPlayer()
		d := b.Decide(cur.ID, cur.Hand, state.Pile)

		var next *game.GameState
		if d.Pass() {
			next, err = game.ApplyPass(state, cur.ID, zero)
			result.Passes++
			if state.Pile == nil {
				idle++
			}
		} else {
			next, _, err = game.ApplyPlay(state, cur.ID, deck.IDs(d.Cards), zero)
			result.Plays++
			if d.IsReset {
				result.Resets++
			}
			idle = 0
		}
		if err != nil {
			return nil, result, fmt.Errorf("%s: %w", cur.ID, err)
		}
		result.Turns++

		if err := next.Check(); err != nil {
			return nil, result, fmt.Errorf("%w: %w", ErrInvariant, err)
		}
		if held := next.TotalCards() + pileSize(next); held > deck.Size {
			return nil, result, fmt.Errorf("%w: %d cards in play", ErrInvariant, held)
		}
		state = next
	}

	for _, id := range state.Winners {
		result.Order = append(result.Order, state.Seat(id))
	}
	result.Order = append(result.Order, state.Seat(state.LastLoserID))
	return state, result, nil
}

func pileSize(s *game.GameState) int {
	if s.Pile == nil {
		return 0
	}
	return len(s.Pile.Cards)
}

// PrintSummary writes a report of the simulated rounds to w
func PrintSummary(w io.Writer, stats *statistics.Statistics, players int) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS (%d players) ===\n", players)
	fmt.Fprintf(w, "Rounds played: %d (%d completed, %d stalled)\n", stats.Rounds, stats.Completed, stats.Stalled)

	fmt.Fprintf(w, "\n=== ROUND LENGTH ===\n")
	fmt.Fprintf(w, "Mean: %.2f turns/round\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.1f turns\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.2f turns\n", stats.StdDev())
	fmt.Fprintf(w, "95%% CI: [%.2f, %.2f] turns/round\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.0f, P25=%.0f, P75=%.0f, P95=%.0f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Fprintf(w, "\n=== MOVES ===\n")
	if turns := stats.Plays + stats.Passes; turns > 0 {
		fmt.Fprintf(w, "Plays: %d (%.1f%%), passes: %d (%.1f%%)\n",
			stats.Plays, float64(stats.Plays)/float64(turns)*100,
			stats.Passes, float64(stats.Passes)/float64(turns)*100)
	}
	fmt.Fprintf(w, "Resets: %d\n", stats.Resets)

	fmt.Fprintf(w, "\n=== SEAT ANALYSIS ===\n")
	for seat := range players {
		st := stats.Seats[seat]
		if st.Rounds == 0 {
			continue
		}
		fmt.Fprintf(w, "Seat %d: %d rounds, %d firsts, mean finish %.2f, lost %.1f%%\n",
			seat+1, st.Rounds, st.Firsts, stats.MeanPosition(seat), stats.LossRate(seat)*100)
	}
}

// Report is the machine-readable outcome of a simulation
type Report struct {
	Seed      int64                  `json:"seed"`
	Players   int                    `json:"players"`
	Rounds    int                    `json:"rounds"`
	Completed int                    `json:"completed"`
	Stalled   int                    `json:"stalled"`
	MeanTurns float64                `json:"meanTurns"`
	StdDev    float64                `json:"stdDev"`
	Plays     int                    `json:"plays"`
	Passes    int                    `json:"passes"`
	Resets    int                    `json:"resets"`
	Seats     []statistics.SeatStats `json:"seats"`
}

// WriteReport saves stats as JSON to path, replacing any previous report
func WriteReport(path string, seed int64, players int, stats *statistics.Statistics) error {
	report := Report{
		Seed:      seed,
		Players:   players,
		Rounds:    stats.Rounds,
		Completed: stats.Completed,
		Stalled:   stats.Stalled,
		MeanTurns: stats.Mean(),
		StdDev:    stats.StdDev(),
		Plays:     stats.Plays,
		Passes:    stats.Passes,
		Resets:    stats.Resets,
		Seats:     stats.Seats[:players],
	}
	return fileutil.WriteJSON(path, report, 0o644)
}
