package models

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// MemberListQuery is a cached member-list request and its result set.
//
// Only unfiltered queries are updated when a member joins: we cannot evaluate
// an arbitrary server-side filter locally. Removal clears the member from
// every query of the channel, filtered or not.
type MemberListQuery struct {
	ID         string `json:"id"`
	CID        string `json:"cid"`
	Filter     string `json:"filter"`
	Unfiltered bool   `json:"unfiltered"`
}

// NewMemberListQuery derives a stable id from cid and filter so the same
// query issued twice maps onto the same cached row.
func NewMemberListQuery(cid, filter string) MemberListQuery {
	sum := blake2b.Sum256([]byte(cid + "\x00" + filter))
	return MemberListQuery{
		ID:         hex.EncodeToString(sum[:16]),
		CID:        cid,
		Filter:     filter,
		Unfiltered: filter == "",
	}
}
