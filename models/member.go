package models

import "time"

// Member is a (channel, user) membership.
//
// Ban state is channel-scoped: a user banned in one channel keeps full access
// to every other channel. ShadowBanned members can still post, but their
// messages arrive flagged as shadowed.
type Member struct {
	CID              string     `json:"cid"`
	UserID           string     `json:"user_id"`
	Role             string     `json:"channel_role"`
	Banned           bool       `json:"banned"`
	ShadowBanned     bool       `json:"shadow_banned"`
	BanExpiresAt     *time.Time `json:"ban_expires"`
	Invited          bool       `json:"invited"`
	InviteAcceptedAt *time.Time `json:"invite_accepted_at"`
	InviteRejectedAt *time.Time `json:"invite_rejected_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Ban applies a channel ban. A shadow ban leaves the regular flag untouched.
func (m *Member) Ban(shadow bool, expiresAt *time.Time) {
	if shadow {
		m.ShadowBanned = true
	} else {
		m.Banned = true
	}
	m.BanExpiresAt = expiresAt
}

// Unban lifts both kinds of ban.
func (m *Member) Unban() {
	m.Banned = false
	m.ShadowBanned = false
	m.BanExpiresAt = nil
}
