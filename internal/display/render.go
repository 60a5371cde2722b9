// Package display renders table snapshots for the terminal.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/game"
)

// Card returns a single card colored by suit
func Card(c deck.Card) string {
	if c.Suit.IsRed() {
		return RedCardStyle.Render(c.String())
	}
	return BlackCardStyle.Render(c.String())
}

// Cards returns the cards in brackets, e.g. [7♥ 7♠]
func Cards(cards []deck.Card) string {
	if len(cards) == 0 {
		return "[]"
	}
	formatted := make([]string, len(cards))
	for i, c := range cards {
		formatted[i] = Card(c)
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

// Ordinal returns 1st, 2nd, 3rd and so on
func Ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// Table renders s as seen by viewerID at time now
func Table(s *game.GameState, viewerID string, now time.Time) string {
	var lines []string

	header := fmt.Sprintf(" Round %d · %s ", s.Round, s.Status)
	if s.Status == game.StatusLobby {
		header = fmt.Sprintf(" Lobby · %d/%d seated ", len(s.Players), game.MaxPlayers)
	}
	lines = append(lines, HeaderStyle.Render(header), "")

	for _, p := range s.Players {
		lines = append(lines, playerLine(s, p, viewerID))
	}
	lines = append(lines, "")

	switch s.Status {
	case game.StatusShuffling:
		lines = append(lines, InfoStyle.Render("Shuffling..."))
	case game.StatusDealing:
		lines = append(lines, InfoStyle.Render("Dealing..."))
	case game.StatusPlaying:
		lines = append(lines, pileLine(s), turnLine(s, viewerID, now))
	case game.StatusGameOver:
		lines = append(lines, resultLines(s)...)
	}

	// The hand stays hidden while the deck is still being shuffled.
	if me := s.Player(viewerID); me != nil && len(me.Hand) > 0 && s.Status != game.StatusShuffling {
		lines = append(lines, "", "Your hand: "+Cards(me.Hand))
	}

	return TableStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func playerLine(s *game.GameState, p game.Player, viewerID string) string {
	marker := "  "
	style := PlayerStyle
	if p.ID == s.CurrentPlayerID {
		marker = "▶ "
		style = CurrentStyle
	}

	name := p.Name
	var tags []string
	if p.ID == viewerID {
		tags = append(tags, "you")
	}
	if p.IsHost {
		tags = append(tags, "host")
	}
	if p.IsBot {
		tags = append(tags, "bot")
	}
	if len(tags) > 0 {
		name += " (" + strings.Join(tags, ", ") + ")"
	}

	line := marker + style.Render(name)
	if s.Status == game.StatusLobby {
		return line
	}

	switch {
	case p.IsFinished && p.Rank != nil:
		line += "  " + SuccessStyle.Render(Ordinal(*p.Rank))
	default:
		line += "  " + InfoStyle.Render(fmt.Sprintf("%d cards", p.HandCount))
	}
	if p.LastAction == game.ActionPass {
		line += "  " + InfoStyle.Render("passed")
	}
	return line
}

func pileLine(s *game.GameState) string {
	if s.Pile == nil {
		return "Pile: " + InfoStyle.Render("empty, any combination leads")
	}
	owner := s.Pile.PlayerID
	if p := s.Player(owner); p != nil {
		owner = p.Name
	}
	return fmt.Sprintf("Pile: %s %s by %s", Cards(s.Pile.Cards), strings.ToLower(s.Pile.Type.String()), owner)
}

func turnLine(s *game.GameState, viewerID string, now time.Time) string {
	cur := s.CurrentPlayer()
	if cur == nil {
		return ""
	}

	remaining := ""
	if !s.TurnDeadline.IsZero() {
		left := max(s.TurnDeadline.Sub(now), 0).Round(time.Second)
		remaining = fmt.Sprintf(" (%s left)", left)
	}

	if cur.ID == viewerID {
		return WarningStyle.Render("Your turn" + remaining)
	}
	return InfoStyle.Render("Waiting for " + cur.Name + remaining)
}

func resultLines(s *game.GameState) []string {
	lines := []string{SuccessStyle.Render("Round over")}
	for i, id := range s.Winners {
		name := id
		if p := s.Player(id); p != nil {
			name = p.Name
		}
		lines = append(lines, fmt.Sprintf("  %s %s", Ordinal(i+1), name))
	}
	if loser := s.Player(s.LastLoserID); loser != nil {
		lines = append(lines, ErrorStyle.Render("Last place: "+loser.Name+" deals next"))
	}
	return lines
}
