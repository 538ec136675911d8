package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/mqvi-sync/pkg"
)

// Channel is the local copy of one chat channel.
//
// Member, watcher and typing sets are not fields here; they live in their own
// tables (channel_members, channel_watchers, channel_typing) so that a single
// membership change never rewrites the whole channel row.
//
// Hidden, TruncatedAt and Muted are local state driven by events. A channel
// payload coming from the server never overwrites them (see MergeRemote).
type Channel struct {
	CID         string     `json:"cid"`
	Type        string     `json:"type"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Hidden      bool       `json:"hidden"`
	TruncatedAt *time.Time `json:"truncated_at"`
	Muted       bool       `json:"muted"`
	// DeliveryEventsEnabled mirrors the channel config "delivery_events".
	DeliveryEventsEnabled bool       `json:"delivery_events_enabled"`
	IsMember              bool       `json:"is_member"` // current user's membership
	MemberCount           int        `json:"member_count"`
	WatcherCount          int        `json:"watcher_count"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	DeletedAt             *time.Time `json:"deleted_at"`
}

// NewChannel builds an empty channel for a cid seen for the first time.
func NewChannel(cid string) (*Channel, error) {
	typ, id, err := SplitCID(cid)
	if err != nil {
		return nil, err
	}
	return &Channel{CID: cid, Type: typ, ID: id}, nil
}

// MergeRemote copies the server-owned fields of remote onto c.
func (c *Channel) MergeRemote(remote *Channel) {
	if remote == nil {
		return
	}
	if remote.Name != "" {
		c.Name = remote.Name
	}
	c.DeliveryEventsEnabled = remote.DeliveryEventsEnabled
	if remote.MemberCount > 0 {
		c.MemberCount = remote.MemberCount
	}
	if !remote.CreatedAt.IsZero() {
		c.CreatedAt = remote.CreatedAt
	}
	if remote.UpdatedAt.After(c.UpdatedAt) {
		c.UpdatedAt = remote.UpdatedAt
	}
}

// Truncate moves TruncatedAt forward to at. It reports whether anything
// changed; an older timestamp is ignored.
func (c *Channel) Truncate(at time.Time) bool {
	if c.TruncatedAt != nil && !at.After(*c.TruncatedAt) {
		return false
	}
	t := at
	c.TruncatedAt = &t
	return true
}

// SplitCID splits "type:id" into its parts.
func SplitCID(cid string) (string, string, error) {
	typ, id, ok := strings.Cut(cid, ":")
	if !ok || typ == "" || id == "" {
		return "", "", fmt.Errorf("%w: cid %q", pkg.ErrMalformed, cid)
	}
	return typ, id, nil
}
