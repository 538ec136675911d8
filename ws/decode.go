package ws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
)

// wireEvent is the union of every field the server puts on an event frame.
// Each event type reads the subset it needs.
type wireEvent struct {
	Type      events.Type `json:"type"`
	CID       string      `json:"cid"`
	CreatedAt time.Time   `json:"created_at"`

	UserID  string          `json:"user_id"`
	User    *models.User    `json:"user"`
	Channel *models.Channel `json:"channel"`
	Member  *wireMember     `json:"member"`
	Message *models.Message `json:"message"`

	Reaction      *models.Reaction `json:"reaction"`
	EnforceUnique bool             `json:"enforce_unique"`

	HardDelete   bool `json:"hard_delete"`
	ClearHistory bool `json:"clear_history"`
	WatcherCount int  `json:"watcher_count"`

	ParentID string `json:"parent_id"`
	ThreadID string `json:"thread_id"`

	LastReadMessageID      string     `json:"last_read_message_id"`
	FirstUnreadMessageID   string     `json:"first_unread_message_id"`
	LastReadAt             *time.Time `json:"last_read_at"`
	UnreadMessages         int        `json:"unread_messages"`
	LastDeliveredAt        *time.Time `json:"last_delivered_at"`
	LastDeliveredMessageID string     `json:"last_delivered_message_id"`

	Shadow     bool       `json:"shadow"`
	Expiration *time.Time `json:"expiration"`
	Reason     string     `json:"reason"`

	Me       *models.CurrentUser `json:"me"`
	Draft    *wireDraft          `json:"draft"`
	Reminder *models.Reminder    `json:"reminder"`
	// MessageID is set on reminder.deleted.
	MessageID string `json:"message_id"`
}

// wireMember is a member as the server nests it: the user id may only be
// present inside the embedded user.
type wireMember struct {
	models.Member
	User *models.User `json:"user"`
}

func (m *wireMember) model(cid string) models.Member {
	out := m.Member
	if out.UserID == "" && m.User != nil {
		out.UserID = m.User.ID
	}
	if out.CID == "" {
		out.CID = cid
	}
	return out
}

type wireDraft struct {
	CID       string          `json:"channel_cid"`
	ParentID  string          `json:"parent_id"`
	Message   *models.Message `json:"message"`
	CreatedAt time.Time       `json:"created_at"`
}

// Decode turns one frame into events. A frame is either a single event
// object or an array of them. A frame that is not JSON fails as a whole;
// an element that fails to decode is skipped and reported in the error
// while the rest of the frame is still returned.
func Decode(frame []byte) ([]events.Event, error) {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty frame", pkg.ErrMalformed)
	}

	var raws []json.RawMessage
	if frame[0] == '[' {
		if err := json.Unmarshal(frame, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", pkg.ErrMalformed, err)
		}
	} else {
		raws = []json.RawMessage{frame}
	}

	out := make([]events.Event, 0, len(raws))
	var firstErr error
	for _, raw := range raws {
		ev, err := DecodeEvent(raw)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, ev)
	}
	return out, firstErr
}

// DecodeEvent decodes a single event object. Unknown types decode to
// *events.Unknown so the caller can still log and count them.
func DecodeEvent(raw json.RawMessage) (events.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrMalformed, err)
	}
	if w.Type == "" {
		return nil, fmt.Errorf("%w: event without type", pkg.ErrMalformed)
	}
	if w.UserID == "" && w.User != nil {
		w.UserID = w.User.ID
	}

	ev, err := w.event(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", w.Type, err)
	}
	return ev, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", pkg.ErrMalformed, field)
}

func (w *wireEvent) message() (models.Message, error) {
	if w.Message == nil {
		return models.Message{}, missing("message")
	}
	msg := *w.Message
	if msg.CID == "" {
		msg.CID = w.CID
	}
	if msg.UserID == "" && w.User != nil {
		msg.UserID = w.User.ID
	}
	return msg, nil
}

func (w *wireEvent) member() (models.Member, error) {
	if w.Member == nil {
		return models.Member{}, missing("member")
	}
	return w.Member.model(w.CID), nil
}

func (w *wireEvent) optionalMember() *models.Member {
	if w.Member == nil {
		return nil
	}
	m := w.Member.model(w.CID)
	return &m
}

func (w *wireEvent) reaction() (models.Reaction, error) {
	if w.Reaction == nil {
		return models.Reaction{}, missing("reaction")
	}
	r := *w.Reaction
	if r.MessageID == "" && w.Message != nil {
		r.MessageID = w.Message.ID
	}
	if r.UserID == "" {
		r.UserID = w.UserID
	}
	return r, nil
}

func timeOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}
	return *t
}

func (w *wireEvent) event(raw json.RawMessage) (events.Event, error) {
	at := w.CreatedAt

	switch w.Type {
	// ─── Channel ───
	case events.TypeChannelUpdated:
		return &events.ChannelUpdated{CID: w.CID, Channel: w.Channel, User: w.User, CreatedAt: at}, nil
	case events.TypeChannelTruncated:
		return &events.ChannelTruncated{CID: w.CID, Channel: w.Channel, Message: w.Message, User: w.User, CreatedAt: at}, nil
	case events.TypeChannelHidden:
		return &events.ChannelHidden{CID: w.CID, UserID: w.UserID, ClearHistory: w.ClearHistory, CreatedAt: at}, nil
	case events.TypeChannelVisible:
		return &events.ChannelVisible{CID: w.CID, UserID: w.UserID, CreatedAt: at}, nil
	case events.TypeChannelDeleted:
		return &events.ChannelDeleted{CID: w.CID, Channel: w.Channel, CreatedAt: at}, nil

	// ─── Member ───
	case events.TypeMemberAdded:
		m, err := w.member()
		if err != nil {
			return nil, err
		}
		return &events.MemberAdded{CID: w.CID, Member: m, User: w.User, CreatedAt: at}, nil
	case events.TypeMemberUpdated:
		m, err := w.member()
		if err != nil {
			return nil, err
		}
		return &events.MemberUpdated{CID: w.CID, Member: m, User: w.User, CreatedAt: at}, nil
	case events.TypeMemberRemoved:
		if w.UserID == "" {
			if m := w.optionalMember(); m != nil {
				w.UserID = m.UserID
			}
		}
		if w.UserID == "" {
			return nil, missing("user")
		}
		return &events.MemberRemoved{CID: w.CID, UserID: w.UserID, User: w.User, CreatedAt: at}, nil
	case events.TypeNotificationInvited:
		m, err := w.member()
		if err != nil {
			return nil, err
		}
		return &events.NotificationInvited{CID: w.CID, Channel: w.Channel, Member: m, User: w.User, CreatedAt: at}, nil
	case events.TypeNotificationInviteAccepted:
		m, err := w.member()
		if err != nil {
			return nil, err
		}
		return &events.NotificationInviteAccepted{CID: w.CID, Channel: w.Channel, Member: m, User: w.User, CreatedAt: at}, nil
	case events.TypeNotificationInviteRejected:
		m, err := w.member()
		if err != nil {
			return nil, err
		}
		return &events.NotificationInviteRejected{CID: w.CID, Channel: w.Channel, Member: m, User: w.User, CreatedAt: at}, nil
	case events.TypeNotificationAddedToChannel:
		return &events.NotificationAddedToChannel{CID: w.CID, Channel: w.Channel, Member: w.optionalMember(), CreatedAt: at}, nil
	case events.TypeNotificationRemovedFromChannel:
		return &events.NotificationRemovedFromChannel{CID: w.CID, UserID: w.UserID, Member: w.optionalMember(), CreatedAt: at}, nil

	// ─── Message ───
	case events.TypeMessageNew:
		msg, err := w.message()
		if err != nil {
			return nil, err
		}
		return &events.MessageNew{CID: w.CID, Message: msg, User: w.User, WatcherCount: w.WatcherCount, CreatedAt: at}, nil
	case events.TypeMessageUpdated:
		msg, err := w.message()
		if err != nil {
			return nil, err
		}
		return &events.MessageUpdated{CID: w.CID, Message: msg, User: w.User, CreatedAt: at}, nil
	case events.TypeMessageDeleted:
		msg, err := w.message()
		if err != nil {
			return nil, err
		}
		return &events.MessageDeleted{CID: w.CID, Message: msg, User: w.User, HardDelete: w.HardDelete, CreatedAt: at}, nil
	case events.TypeMessageRead:
		return &events.MessageRead{
			CID:               w.CID,
			UserID:            w.UserID,
			User:              w.User,
			LastReadMessageID: w.LastReadMessageID,
			ThreadParentID:    w.ThreadID,
			CreatedAt:         at,
		}, nil
	case events.TypeMessageDelivered:
		return &events.MessageDelivered{
			CID:                    w.CID,
			UserID:                 w.UserID,
			LastDeliveredAt:        timeOr(w.LastDeliveredAt, at),
			LastDeliveredMessageID: w.LastDeliveredMessageID,
			CreatedAt:              at,
		}, nil

	// ─── Notification ───
	case events.TypeNotificationMarkRead:
		if w.CID == "" {
			return &events.NotificationMarkAllRead{UserID: w.UserID, CreatedAt: at}, nil
		}
		return &events.NotificationMarkRead{CID: w.CID, UserID: w.UserID, LastReadMessageID: w.LastReadMessageID, CreatedAt: at}, nil
	case events.TypeNotificationMarkUnread:
		return &events.NotificationMarkUnread{
			CID:                  w.CID,
			UserID:               w.UserID,
			FirstUnreadMessageID: w.FirstUnreadMessageID,
			LastReadMessageID:    w.LastReadMessageID,
			LastReadAt:           timeOr(w.LastReadAt, at),
			UnreadMessages:       w.UnreadMessages,
			ThreadParentID:       w.ThreadID,
			CreatedAt:            at,
		}, nil
	case events.TypeNotificationMessageNew:
		msg, err := w.message()
		if err != nil {
			return nil, err
		}
		return &events.NotificationMessageNew{CID: w.CID, Channel: w.Channel, Message: msg, CreatedAt: at}, nil
	case events.TypeNotificationThreadMessageNew:
		msg, err := w.message()
		if err != nil {
			return nil, err
		}
		return &events.ThreadMessageNew{CID: w.CID, Message: msg, Channel: w.Channel, CreatedAt: at}, nil
	case events.TypeNotificationMutesUpdated:
		if w.Me == nil {
			return nil, missing("me")
		}
		return &events.NotificationMutesUpdated{CurrentUser: *w.Me, CreatedAt: at}, nil

	// ─── Reaction ───
	case events.TypeReactionNew, events.TypeReactionUpdated, events.TypeReactionDeleted:
		return w.reactionEvent()

	// ─── Typing ───
	case events.TypeTypingStart:
		return &events.TypingStart{CID: w.CID, UserID: w.UserID, ParentID: w.ParentID, CreatedAt: at}, nil
	case events.TypeTypingStop:
		return &events.TypingStop{CID: w.CID, UserID: w.UserID, ParentID: w.ParentID, CreatedAt: at}, nil

	// ─── User ───
	case events.TypeUserUpdated:
		if w.User == nil {
			return nil, missing("user")
		}
		return &events.UserUpdated{User: *w.User, CreatedAt: at}, nil
	case events.TypeUserBanned:
		return &events.UserBanned{CID: w.CID, UserID: w.UserID, Shadow: w.Shadow, ExpiresAt: w.Expiration, Reason: w.Reason, CreatedAt: at}, nil
	case events.TypeUserUnbanned:
		return &events.UserUnbanned{CID: w.CID, UserID: w.UserID, Shadow: w.Shadow, CreatedAt: at}, nil
	case events.TypeUserWatchingStart:
		return &events.UserWatchingStart{CID: w.CID, UserID: w.UserID, User: w.User, WatcherCount: w.WatcherCount, CreatedAt: at}, nil
	case events.TypeUserWatchingStop:
		return &events.UserWatchingStop{CID: w.CID, UserID: w.UserID, User: w.User, WatcherCount: w.WatcherCount, CreatedAt: at}, nil

	// ─── Draft / reminder ───
	case events.TypeDraftUpdated:
		if w.Draft == nil {
			return nil, missing("draft")
		}
		return &events.DraftUpdated{Draft: w.Draft.model(w.CID), CreatedAt: at}, nil
	case events.TypeDraftDeleted:
		if w.Draft != nil {
			d := w.Draft.model(w.CID)
			return &events.DraftDeleted{CID: d.CID, ParentID: d.ParentID, CreatedAt: at}, nil
		}
		return &events.DraftDeleted{CID: w.CID, ParentID: w.ParentID, CreatedAt: at}, nil
	case events.TypeReminderCreated, events.TypeReminderUpdated, events.TypeNotificationReminderDue:
		if w.Reminder == nil {
			return nil, missing("reminder")
		}
		r := *w.Reminder
		if r.CID == "" {
			r.CID = w.CID
		}
		switch w.Type {
		case events.TypeReminderCreated:
			return &events.ReminderCreated{Reminder: r, CreatedAt: at}, nil
		case events.TypeReminderUpdated:
			return &events.ReminderUpdated{Reminder: r, CreatedAt: at}, nil
		}
		return &events.ReminderDue{Reminder: r, CreatedAt: at}, nil
	case events.TypeReminderDeleted:
		msgID, cid := w.MessageID, w.CID
		if w.Reminder != nil {
			msgID = w.Reminder.MessageID
			if w.Reminder.CID != "" {
				cid = w.Reminder.CID
			}
		}
		if msgID == "" {
			return nil, missing("message_id")
		}
		return &events.ReminderDeleted{MessageID: msgID, CID: cid, CreatedAt: at}, nil
	}

	return &events.Unknown{WireType: string(w.Type), CID: w.CID, Raw: raw, CreatedAt: at}, nil
}

func (w *wireEvent) reactionEvent() (events.Event, error) {
	r, err := w.reaction()
	if err != nil {
		return nil, err
	}
	at := w.CreatedAt

	switch w.Type {
	case events.TypeReactionNew:
		return &events.ReactionNew{CID: w.CID, Message: w.Message, Reaction: r, User: w.User, CreatedAt: at}, nil
	case events.TypeReactionUpdated:
		return &events.ReactionUpdated{
			CID:           w.CID,
			Message:       w.Message,
			Reaction:      r,
			User:          w.User,
			EnforceUnique: w.EnforceUnique,
			CreatedAt:     at,
		}, nil
	}
	return &events.ReactionDeleted{CID: w.CID, Message: w.Message, Reaction: r, User: w.User, CreatedAt: at}, nil
}

func (d *wireDraft) model(cid string) models.Draft {
	out := models.Draft{CID: d.CID, ParentID: d.ParentID, CreatedAt: d.CreatedAt}
	if out.CID == "" {
		out.CID = cid
	}
	if d.Message != nil {
		out.Text = d.Message.Text
		if out.ParentID == "" {
			out.ParentID = d.Message.ParentID
		}
	}
	return out
}
