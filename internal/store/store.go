//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_gateway.go -package=mocks

// Package store declares the persistence gateway the messaging core talks to
// for saving chat messages and reading group membership and history.
package store

import (
	"context"
	"errors"

	"github.com/Tyrowin/imcore/internal/chat"
)

// ErrGroupNotFound is returned when no group exists for a team id.
var ErrGroupNotFound = errors.New("group not found")

// Gateway is the subset of the external document store used by the router
// and the history endpoints.
type Gateway interface {
	// SaveMessage appends msg and returns it with its store-assigned id.
	SaveMessage(ctx context.Context, msg chat.Message) (chat.Message, error)
	// GroupMembers returns the current member ids of the team's group.
	GroupMembers(ctx context.Context, teamID string) ([]string, error)
	// DirectHistory returns the messages exchanged between a and b, oldest first.
	DirectHistory(ctx context.Context, a, b string) ([]chat.Message, error)
	// GroupHistory returns the team's messages, oldest first.
	GroupHistory(ctx context.Context, teamID string) ([]chat.Message, error)
	// DirectChatList returns the latest message per conversation partner of
	// userID, newest first, with SenderID set to userID and ReceiverID to the
	// partner.
	DirectChatList(ctx context.Context, userID string) ([]chat.Message, error)
	// TeamChatList returns every group userID belongs to with its latest
	// message.
	TeamChatList(ctx context.Context, userID string) ([]chat.GroupSummary, error)
}

// Store is a Gateway that also owns group records and its connection.
type Store interface {
	Gateway
	SaveGroup(ctx context.Context, group chat.Group) error
	Close(ctx context.Context) error
}
