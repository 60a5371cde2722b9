package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/display"
	"github.com/lox/tycoon/internal/game"
	"github.com/lox/tycoon/internal/rules"
)

var errQuit = errors.New("quit")

// seat is what the console drives: the hosting participant or a replica
type seat interface {
	Play(cardIDs []string) (rules.Verdict, error)
	Pass() error
}

// console reads commands from the terminal and applies them to a seat
type console struct {
	out      io.Writer
	seat     seat
	viewerID string
	view     func() *game.GameState
	extra    map[string]func(args []string) error
	help     []string
}

func newConsole(out io.Writer, s seat, viewerID string, view func() *game.GameState) *console {
	return &console{
		out:      out,
		seat:     s,
		viewerID: viewerID,
		view:     view,
		extra:    map[string]func([]string) error{},
		help: []string{
			"play <cards>   play cards by face, e.g. play 7S 7H",
			"pass           pass the turn",
			"show           redraw the table",
			"quit           leave the game",
		},
	}
}

// handle registers an additional command
func (c *console) handle(name, usage string, fn func(args []string) error) {
	c.extra[name] = fn
	c.help = append(c.help, usage)
}

// run reads lines until ctx is done, in is exhausted or the user quits
func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := c.exec(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(c.out, display.ErrorStyle.Render(err.Error()))
			}
		}
	}
}

// exec runs a single command line
func (c *console) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "play", "p":
		me := c.view().Player(c.viewerID)
		if me == nil {
			return game.ErrUnknownPlayer
		}
		ids, err := cardIDs(me.Hand, args)
		if err != nil {
			return err
		}
		_, err = c.seat.Play(ids)
		return err
	case "pass":
		return c.seat.Pass()
	case "show":
		fmt.Fprintln(c.out, display.Table(c.view(), c.viewerID, time.Now()))
		return nil
	case "help", "?":
		fmt.Fprintln(c.out, display.InfoStyle.Render(strings.Join(c.help, "\n")))
		return nil
	case "quit", "exit":
		return errQuit
	}

	if fn, ok := c.extra[name]; ok {
		return fn(args)
	}
	return fmt.Errorf("unknown command %q, try help", name)
}

// cardIDs resolves typed faces against the cards in hand. Faces are unique
// within a deck so each names exactly one held card.
func cardIDs(hand []deck.Card, faces []string) ([]string, error) {
	if len(faces) == 0 {
		return nil, rules.ErrNoCards
	}
	ids := make([]string, 0, len(faces))
	for _, face := range faces {
		want, err := deck.ParseLabel(face)
		if err != nil {
			return nil, err
		}
		i := slices.IndexFunc(hand, func(c deck.Card) bool {
			return c.Rank == want.Rank && c.Suit == want.Suit
		})
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", game.ErrCardNotHeld, want.Label())
		}
		ids = append(ids, hand[i].ID)
	}
	return ids, nil
}

// printer returns an update callback that redraws the table for viewerID
func printer(out io.Writer, viewerID string) func(*game.GameState) {
	return func(s *game.GameState) {
		fmt.Fprintln(out, display.Table(s, viewerID, time.Now()))
	}
}
