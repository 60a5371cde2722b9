// Package statistics accumulates the outcomes of simulated rounds.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// MaxSeats bounds the per-seat tables
const MaxSeats = 6

// RoundResult is the outcome of a single simulated round
type RoundResult struct {
	Seed    int64 // RNG seed of the worker that played the round
	Round   int   // round number within the worker's match
	Players int
	Turns   int // plays plus passes
	Plays   int
	Passes  int
	Resets  int   // plays that cleared the pile with twos
	Order   []int // seat indexes in finishing order, loser last
	Stalled bool  // no one could play and the round was abandoned
}

// SeatStats tracks how one seat fared across rounds
type SeatStats struct {
	Rounds      int
	Firsts      int
	Losses      int
	SumPosition int
}

// Statistics tracks turn counts and finishing positions across rounds
type Statistics struct {
	Rounds    int
	Completed int
	Stalled   int
	SumTurns  float64
	SumTurns2 float64   // sum of squares for variance
	Values    []float64 // turns per completed round, for median/percentiles

	Plays  int
	Passes int
	Resets int

	Seats [MaxSeats]SeatStats
}

// Add incorporates a round into the statistics. Stalled rounds are only
// counted.
func (s *Statistics) Add(result RoundResult) {
	s.Rounds++
	if result.Stalled {
		s.Stalled++
		return
	}

	s.Completed++
	turns := float64(result.Turns)
	s.SumTurns += turns
	s.SumTurns2 += turns * turns
	s.Values = append(s.Values, turns)

	s.Plays += result.Plays
	s.Passes += result.Passes
	s.Resets += result.Resets

	for pos, seat := range result.Order {
		if seat < 0 || seat >= MaxSeats {
			continue
		}
		st := &s.Seats[seat]
		st.Rounds++
		st.SumPosition += pos + 1
		if pos == 0 {
			st.Firsts++
		}
		if pos == len(result.Order)-1 {
			st.Losses++
		}
	}
}

// Merge folds other into s
func (s *Statistics) Merge(other *Statistics) {
	s.Rounds += other.Rounds
	s.Completed += other.Completed
	s.Stalled += other.Stalled
	s.SumTurns += other.SumTurns
	s.SumTurns2 += other.SumTurns2
	s.Values = append(s.Values, other.Values...)
	s.Plays += other.Plays
	s.Passes += other.Passes
	s.Resets += other.Resets
	for i := range s.Seats {
		s.Seats[i].Rounds += other.Seats[i].Rounds
		s.Seats[i].Firsts += other.Seats[i].Firsts
		s.Seats[i].Losses += other.Seats[i].Losses
		s.Seats[i].SumPosition += other.Seats[i].SumPosition
	}
}

// Mean returns the mean number of turns per completed round
func (s *Statistics) Mean() float64 {
	if s.Completed == 0 {
		return 0
	}
	return s.SumTurns / float64(s.Completed)
}

// Variance returns the sample variance of turns per round
func (s *Statistics) Variance() float64 {
	if s.Completed < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumTurns2 - float64(s.Completed)*mean*mean) / float64(s.Completed-1)
}

// StdDev returns the sample standard deviation of turns per round
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Completed == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Completed))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median turns per round
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s *Statistics) sorted() []float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return sorted
}

// LossRate returns the fraction of rounds the seat finished last
func (s *Statistics) LossRate(seat int) float64 {
	if seat < 0 || seat >= MaxSeats || s.Seats[seat].Rounds == 0 {
		return 0
	}
	return float64(s.Seats[seat].Losses) / float64(s.Seats[seat].Rounds)
}

// MeanPosition returns the seat's average finishing position, 1-based
func (s *Statistics) MeanPosition(seat int) float64 {
	if seat < 0 || seat >= MaxSeats || s.Seats[seat].Rounds == 0 {
		return 0
	}
	return float64(s.Seats[seat].SumPosition) / float64(s.Seats[seat].Rounds)
}

// Validate checks the tallies agree with each other
func (s *Statistics) Validate() error {
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if s.Completed+s.Stalled != s.Rounds {
		return fmt.Errorf("completed (%d) plus stalled (%d) does not match rounds (%d)",
			s.Completed, s.Stalled, s.Rounds)
	}
	if len(s.Values) != s.Completed {
		return fmt.Errorf("values array length (%d) does not match completed rounds (%d)",
			len(s.Values), s.Completed)
	}
	if math.Abs(s.SumTurns-float64(s.Plays+s.Passes)) > 1e-6 {
		return fmt.Errorf("turn ledger mismatch: turns=%.0f, plays=%d, passes=%d",
			s.SumTurns, s.Plays, s.Passes)
	}
	if s.Resets > s.Plays {
		return fmt.Errorf("resets (%d) exceed plays (%d)", s.Resets, s.Plays)
	}

	losses, firsts := 0, 0
	for _, st := range s.Seats {
		losses += st.Losses
		firsts += st.Firsts
	}
	if losses != s.Completed {
		return fmt.Errorf("seat losses (%d) do not match completed rounds (%d)", losses, s.Completed)
	}
	if firsts != s.Completed {
		return fmt.Errorf("seat wins (%d) do not match completed rounds (%d)", firsts, s.Completed)
	}
	return nil
}
