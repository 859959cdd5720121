package store

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/Tyrowin/imcore/internal/chat"
)

// NormalizeDirectList keeps the newest message per partner of userID, points
// each row from userID to the partner and sorts newest first.
func NormalizeDirectList(userID string, msgs []chat.Message) []chat.Message {
	latest := make(map[string]chat.Message)
	for _, m := range msgs {
		peer := m.Peer(userID)
		if cur, ok := latest[peer]; !ok || m.Timestamp > cur.Timestamp {
			latest[peer] = m
		}
	}

	out := lo.MapToSlice(latest, func(peer string, m chat.Message) chat.Message {
		m.SenderID = userID
		m.ReceiverID = peer
		return m
	})
	slices.SortFunc(out, func(a, b chat.Message) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ReceiverID, b.ReceiverID)
	})
	return out
}

// SortTeamList orders summaries by latest activity, groups without messages
// last.
func SortTeamList(rows []chat.GroupSummary) {
	slices.SortStableFunc(rows, func(a, b chat.GroupSummary) int {
		if c := cmp.Compare(b.Time, a.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.TeamID, b.TeamID)
	})
}
