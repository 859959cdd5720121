package chat

import "slices"

// Group is a team chat owned by an external service. The core only reads its
// membership at routing time.
type Group struct {
	ID          string   `json:"id,omitempty"`
	TeamID      string   `json:"teamId"`
	Name        string   `json:"name,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"memberIds"`
	CreateBy    string   `json:"createBy,omitempty"`
	Timestamp   int64    `json:"timestamp,omitempty"`
}

// HasMember reports whether userID is listed in the group.
func (g Group) HasMember(userID string) bool {
	return slices.Contains(g.MemberIDs, userID)
}

// GroupSummary is one row of a user's team chat list: the group and the
// content and time of its latest message, if any.
type GroupSummary struct {
	Group
	Content string `json:"content,omitempty"`
	Time    int64  `json:"time,omitempty"`
}
