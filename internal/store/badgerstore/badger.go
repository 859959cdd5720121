// Package badgerstore implements the persistence gateway on an embedded
// BadgerDB. It serves single-node deployments and tests.
//
// Key layout (ids are base64url encoded so they never contain ':'):
//
//	md:{lo}:{hi}:{ts}:{seq}  direct message, lo/hi = sorted participant pair
//	mg:{team}:{ts}:{seq}     group message
//	ld:{user}:{peer}         latest direct message per partner
//	lg:{team}                latest group message
//	g:{team}                 group record
//	u:{user}:{team}          membership index
//
// ts is the 19 digit zero padded epoch milliseconds and seq a 20 digit
// sequence number, so prefix scans return messages in timestamp then
// insertion order.
package badgerstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tyrowin/imcore/internal/chat"
	"github.com/Tyrowin/imcore/internal/store"
)

const maxConflictRetries = 32

var sequenceKey = []byte("seq:messages")

// Store is a BadgerDB backed store.Store.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
	log *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database in dir.
func Open(dir string, log *zap.Logger) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return New(db, log)
}

// New wraps an open database.
func New(db *badger.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	seq, err := db.GetSequence(sequenceKey, 1000)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &Store{db: db, seq: seq, log: log}, nil
}

func seg(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func unseg(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	return string(b), err
}

func pair(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return seg(a) + ":" + seg(b)
}

func directPrefix(a, b string) []byte    { return []byte("md:" + pair(a, b) + ":") }
func groupPrefix(teamID string) []byte   { return []byte("mg:" + seg(teamID) + ":") }
func latestDirectPrefix(u string) []byte { return []byte("ld:" + seg(u) + ":") }
func latestDirectKey(u, peer string) []byte {
	return []byte("ld:" + seg(u) + ":" + seg(peer))
}
func latestGroupKey(teamID string) []byte { return []byte("lg:" + seg(teamID)) }
func groupKey(teamID string) []byte       { return []byte("g:" + seg(teamID)) }
func memberPrefix(u string) []byte        { return []byte("u:" + seg(u) + ":") }
func memberKey(u, teamID string) []byte {
	return []byte("u:" + seg(u) + ":" + seg(teamID))
}

// update runs fn in a read-write transaction, retrying on conflicts with
// concurrent writers.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		return err
	}
}

// SaveMessage appends msg and refreshes the latest-message indexes.
func (s *Store) SaveMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return chat.Message{}, err
	}
	if err := msg.Validate(); err != nil {
		return chat.Message{}, err
	}
	if msg.Timestamp < 0 {
		return chat.Message{}, fmt.Errorf("%w: negative timestamp", chat.ErrInvalidMessage)
	}
	n, err := s.seq.Next()
	if err != nil {
		return chat.Message{}, fmt.Errorf("next message sequence: %w", err)
	}
	msg.ID = uuid.NewString()

	value, err := json.Marshal(msg)
	if err != nil {
		return chat.Message{}, err
	}
	suffix := fmt.Sprintf("%019d:%020d", msg.Timestamp, n)

	err = s.update(func(txn *badger.Txn) error {
		switch msg.Kind {
		case chat.KindDirect:
			if err := txn.Set(append(directPrefix(msg.SenderID, msg.ReceiverID), suffix...), value); err != nil {
				return err
			}
			if err := setIfNewer(txn, latestDirectKey(msg.SenderID, msg.ReceiverID), msg, value); err != nil {
				return err
			}
			return setIfNewer(txn, latestDirectKey(msg.ReceiverID, msg.SenderID), msg, value)
		default:
			if err := txn.Set(append(groupPrefix(msg.TeamID), suffix...), value); err != nil {
				return err
			}
			return setIfNewer(txn, latestGroupKey(msg.TeamID), msg, value)
		}
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("store message: %w", err)
	}
	return msg, nil
}

func setIfNewer(txn *badger.Txn, key []byte, msg chat.Message, value []byte) error {
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return txn.Set(key, value)
	case err != nil:
		return err
	}
	var cur chat.Message
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &cur) }); err != nil {
		return err
	}
	if msg.Timestamp < cur.Timestamp {
		return nil
	}
	return txn.Set(key, value)
}

// GroupMembers reads the member ids of the group for teamID.
func (s *Store) GroupMembers(ctx context.Context, teamID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var group chat.Group
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, groupKey(teamID), &group)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read group %s: %w", teamID, err)
	}
	return group.MemberIDs, nil
}

// DirectHistory returns both directions of the a<->b conversation, oldest
// first.
func (s *Store) DirectHistory(ctx context.Context, a, b string) ([]chat.Message, error) {
	return s.scan(ctx, directPrefix(a, b))
}

// GroupHistory returns the team's messages, oldest first.
func (s *Store) GroupHistory(ctx context.Context, teamID string) ([]chat.Message, error) {
	return s.scan(ctx, groupPrefix(teamID))
}

func (s *Store) scan(ctx context.Context, prefix []byte) ([]chat.Message, error) {
	msgs := []chat.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var m chat.Message
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &m) }); err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	return msgs, nil
}

// DirectChatList returns the latest message per conversation partner.
func (s *Store) DirectChatList(ctx context.Context, userID string) ([]chat.Message, error) {
	latest, err := s.scan(ctx, latestDirectPrefix(userID))
	if err != nil {
		return nil, err
	}
	return store.NormalizeDirectList(userID, latest), nil
}

// TeamChatList lists the user's groups with the last message of each.
func (s *Store) TeamChatList(ctx context.Context, userID string) ([]chat.GroupSummary, error) {
	rows := []chat.GroupSummary{}
	prefix := memberPrefix(userID)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var teamIDs []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			teamID, err := unseg(strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
			if err != nil {
				return err
			}
			teamIDs = append(teamIDs, teamID)
		}

		for _, teamID := range teamIDs {
			if err := ctx.Err(); err != nil {
				return err
			}
			var row chat.GroupSummary
			if err := getJSON(txn, groupKey(teamID), &row.Group); err != nil {
				return fmt.Errorf("group %s: %w", teamID, err)
			}
			var last chat.Message
			err := getJSON(txn, latestGroupKey(teamID), &last)
			switch {
			case err == nil:
				row.Content = last.Content
				row.Time = last.Timestamp
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("team chat list for %s: %w", userID, err)
	}
	store.SortTeamList(rows)
	return rows, nil
}

// SaveGroup upserts the group keyed by its team id and keeps the membership
// index in step with its member list.
func (s *Store) SaveGroup(ctx context.Context, group chat.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if group.TeamID == "" {
		return errors.New("group team id is required")
	}
	return s.update(func(txn *badger.Txn) error {
		var existing chat.Group
		err := getJSON(txn, groupKey(group.TeamID), &existing)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		}

		g := group
		if g.ID == "" {
			g.ID = existing.ID
		}
		if g.ID == "" {
			g.ID = uuid.NewString()
		}

		for _, member := range existing.MemberIDs {
			if !g.HasMember(member) {
				if err := txn.Delete(memberKey(member, g.TeamID)); err != nil {
					return err
				}
			}
		}
		for _, member := range g.MemberIDs {
			if err := txn.Set(memberKey(member, g.TeamID), nil); err != nil {
				return err
			}
		}
		value, err := json.Marshal(g)
		if err != nil {
			return err
		}
		return txn.Set(groupKey(g.TeamID), value)
	})
}

// Close releases the sequence and closes the database.
func (s *Store) Close(context.Context) error {
	if err := s.seq.Release(); err != nil {
		s.log.Warn("release message sequence", zap.Error(err))
	}
	s.log.Info("closing badger")
	return s.db.Close()
}

func getJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(v []byte) error { return json.Unmarshal(v, dst) })
}
