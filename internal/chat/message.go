// Package chat defines the records the messaging core persists and reads:
// chat messages and the groups used for team fan-out.
package chat

import (
	"errors"
	"fmt"
)

// Kind discriminates direct (1:1) from group (team) messages.
type Kind string

const (
	KindDirect Kind = "DIRECT"
	KindGroup  Kind = "GROUP"
)

// ErrInvalidMessage is returned by Validate for records that break the
// kind/field pairing rules.
var ErrInvalidMessage = errors.New("invalid chat message")

// Message is a persisted chat record. It is created once by the router and
// never mutated afterwards, so it is passed by value.
type Message struct {
	ID         string `json:"id,omitempty"`
	Kind       Kind   `json:"type"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId,omitempty"`
	TeamID     string `json:"teamId,omitempty"`
	Content    string `json:"content"`
	// Timestamp is epoch milliseconds assigned by the server at routing time.
	Timestamp int64 `json:"timestamp"`
}

// Validate checks that the fields set on the message match its kind.
func (m Message) Validate() error {
	if m.SenderID == "" {
		return fmt.Errorf("%w: sender id is required", ErrInvalidMessage)
	}
	switch m.Kind {
	case KindDirect:
		if m.ReceiverID == "" {
			return fmt.Errorf("%w: direct message without receiver", ErrInvalidMessage)
		}
		if m.TeamID != "" {
			return fmt.Errorf("%w: direct message with team id", ErrInvalidMessage)
		}
	case KindGroup:
		if m.TeamID == "" {
			return fmt.Errorf("%w: group message without team", ErrInvalidMessage)
		}
		if m.ReceiverID != "" {
			return fmt.Errorf("%w: group message with receiver id", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, m.Kind)
	}
	return nil
}

// Peer returns the other participant of a direct message as seen by userID.
func (m Message) Peer(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}
