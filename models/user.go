package models

import (
	"slices"
	"time"
)

// User is the local copy of any user the event stream has mentioned.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Banned    bool       `json:"banned"`
	Online    bool       `json:"online"`
	LastSeen  *time.Time `json:"last_active"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CurrentUser is the user this client is logged in as, plus the settings
// unread and delivery accounting depend on.
type CurrentUser struct {
	UserID                  string   `json:"user_id"`
	MutedUserIDs            []string `json:"muted_user_ids"`
	DeliveryReceiptsEnabled bool     `json:"delivery_receipts_enabled"`
}

// HasMuted reports whether the current user muted userID.
func (u *CurrentUser) HasMuted(userID string) bool {
	return slices.Contains(u.MutedUserIDs, userID)
}
