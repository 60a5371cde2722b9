// Package game implements the turn and pile state machine of the climbing
// card game.
//
// The main type is GameState, a snapshot of the whole table: seating order,
// hands, the pile, whose turn it is and how the round stands. Every
// transition in this package is a pure function that takes a snapshot and
// returns a new one; inputs are never modified. This lets the host compute
// the next state, publish it, and hand clients a copy they can replace
// wholesale.
//
// # Basic Usage
//
//	s := game.New()
//	s, _ = game.Join(s, game.Player{ID: "a", Name: "Alice", IsHost: true}, 6)
//	s, _ = game.Join(s, game.Player{ID: "b", Name: "Bob"}, 6)
//	s, opener, _ := game.StartRound(s, rng, 2)
//	s, _ = game.BeginDealing(s)
//	s, _ = game.BeginPlay(s, opener, deadline)
//	s, verdict, err := game.ApplyPlay(s, opener, cardIDs, deadline)
//
// Requests that are out of turn, reference unknown players or cards the
// player does not hold return a sentinel error and a nil state. Moves that
// break the rules return ErrIllegalMove wrapping the validator's reason.
//
// # Turn Order
//
// Turns and the deal both travel counter-clockwise (Direction = -1). The
// seat one step from the dealer receives the first card and opens; the
// dealer is the previous round's loser.
package game
