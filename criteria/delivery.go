package criteria

import "github.com/akinalp/mqvi-sync/models"

// DeliveryInput is everything the delivery rule looks at.
type DeliveryInput struct {
	Message     *models.Message
	Channel     *models.Channel
	CurrentUser *models.CurrentUser
	Read        *models.ChannelRead // current user's read, nil when none
}

// CanMarkDelivered reports whether the current user should acknowledge
// delivery of the message.
func CanMarkDelivered(in DeliveryInput) bool {
	msg, ch, me := in.Message, in.Channel, in.CurrentUser

	if ch == nil || me == nil {
		return false
	}
	if !ch.DeliveryEventsEnabled || ch.Muted || ch.Hidden {
		return false
	}
	if !me.DeliveryReceiptsEnabled {
		return false
	}
	if msg.IsThreadReply() || msg.UserID == me.UserID || msg.Shadowed {
		return false
	}
	if me.HasMuted(msg.UserID) {
		return false
	}

	if in.Read == nil {
		return true
	}
	if !msg.CreatedAt.After(in.Read.LastReadAt) {
		return false
	}
	if in.Read.LastDeliveredAt != nil && !msg.CreatedAt.After(*in.Read.LastDeliveredAt) {
		return false
	}
	return true
}
