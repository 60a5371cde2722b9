// Package protocol defines the messages exchanged between the host and the
// other participants. Every message is a JSON envelope carrying a typed
// payload; the host answers accepted requests with a fresh snapshot and
// stays silent on rejected ones.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lox/tycoon/internal/deck"
	"github.com/lox/tycoon/internal/game"
)

// MessageType names the payload carried by a Message
type MessageType string

const (
	// Participant to host
	TypeJoin      MessageType = "JOIN"
	TypePlayCards MessageType = "PLAY_CARDS"
	TypePass      MessageType = "PASS"
	TypeLeave     MessageType = "LEAVE"

	// Host to participants
	TypeGameStateUpdate MessageType = "GAME_STATE_UPDATE"
)

func (t MessageType) String() string {
	return string(t)
}

// ErrUnknownType is returned when decoding a payload of an unexpected type
var ErrUnknownType = errors.New("unknown message type")

// Message is the envelope for everything on the wire
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", messageType, err)
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// JoinData asks the host for a seat
type JoinData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayCardsData proposes a move. The host trusts neither the card details
// nor the reset flag: cards are looked up by id in the sender's hand and the
// move is validated again.
type PlayCardsData struct {
	Cards   []deck.Card `json:"cards"`
	IsReset bool        `json:"isReset"`
}

// CardIDs returns the ids of the proposed cards
func (d PlayCardsData) CardIDs() []string {
	return deck.IDs(d.Cards)
}

// PassData passes the sender's turn
type PassData struct{}

// LeaveData announces a voluntary departure
type LeaveData struct {
	ID string `json:"id"`
}

// GameStateUpdateData is a complete snapshot as seen by its recipient
type GameStateUpdateData = game.GameState

func Join(id, name string) (*Message, error) {
	return NewMessage(TypeJoin, JoinData{ID: id, Name: name})
}

func PlayCards(cards []deck.Card, isReset bool) (*Message, error) {
	return NewMessage(TypePlayCards, PlayCardsData{Cards: cards, IsReset: isReset})
}

func Pass() (*Message, error) {
	return NewMessage(TypePass, PassData{})
}

func Leave(id string) (*Message, error) {
	return NewMessage(TypeLeave, LeaveData{ID: id})
}

func GameStateUpdate(s *game.GameState) (*Message, error) {
	return NewMessage(TypeGameStateUpdate, s)
}

// Payload decodes the message data into the struct matching its type
func (m *Message) Payload() (any, error) {
	var (
		v   any
		err error
	)
	switch m.Type {
	case TypeJoin:
		var d JoinData
		err = json.Unmarshal(m.Data, &d)
		v = d
	case TypePlayCards:
		var d PlayCardsData
		err = json.Unmarshal(m.Data, &d)
		v = d
	case TypePass:
		v = PassData{}
	case TypeLeave:
		var d LeaveData
		err = json.Unmarshal(m.Data, &d)
		v = d
	case TypeGameStateUpdate:
		var d GameStateUpdateData
		err = json.Unmarshal(m.Data, &d)
		v = &d
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.Type, err)
	}
	return v, nil
}

// Marshal encodes the envelope for the wire
func Marshal(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal decodes an envelope read from the wire
func Unmarshal(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &m, nil
}
