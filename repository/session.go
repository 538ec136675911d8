// Package repository, sync core'un kullandığı persistence katmanıdır.
//
// Repository pattern nedir?
// Middleware'ler SQL bilmez; entity başına tanımlı interface'ler
// (ChannelRepository, ReadRepository, ...) üzerinden load/save/delete
// çağırır. SQLite implementasyonu sqlite_*.go dosyalarındadır. Test'te
// veya başka bir store'da interface'i karşılayan her tip kullanılabilir.
//
// DatabaseSession tüm bu interface'lerin birleşimidir ve tek bir write
// transaction'ını sarar: bir batch işlenirken yapılan her değişiklik birlikte
// commit veya rollback olur, sonraki çağrı önceki çağrının yazdığını görür.
//
// Load metodları satır yoksa pkg.ErrNotFound saran bir error döner. Olmayan
// satır üzerinde Delete metodları no-op'tur.
package repository

import (
	"context"
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

// CurrentUserRepository stores the logged-in user and the settings unread
// accounting needs (mutes, delivery receipts).
type CurrentUserRepository interface {
	CurrentUser(ctx context.Context) (*models.CurrentUser, error)
	SaveCurrentUser(ctx context.Context, user *models.CurrentUser) error
}

type UserRepository interface {
	User(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// ChannelRepository covers the channel row and its live sets (watchers,
// typing users).
type ChannelRepository interface {
	Channel(ctx context.Context, cid string) (*models.Channel, error)
	SaveChannel(ctx context.Context, channel *models.Channel) error
	DeleteChannel(ctx context.Context, cid string) error
	SetMembership(ctx context.Context, cid string, isMember bool) error

	AddWatcher(ctx context.Context, cid, userID string) error
	RemoveWatcher(ctx context.Context, cid, userID string) error
	WatcherIDs(ctx context.Context, cid string) ([]string, error)

	AddTypingUser(ctx context.Context, cid, userID string, at time.Time) error
	RemoveTypingUser(ctx context.Context, cid, userID string) error
	TypingUserIDs(ctx context.Context, cid string) ([]string, error)
}

// MemberRepository covers channel members and the cached member-list query
// result sets that reference them.
type MemberRepository interface {
	Member(ctx context.Context, cid, userID string) (*models.Member, error)
	SaveMember(ctx context.Context, member *models.Member) error
	DeleteMember(ctx context.Context, cid, userID string) error
	ChannelMemberIDs(ctx context.Context, cid string) ([]string, error)

	SaveMemberListQuery(ctx context.Context, query models.MemberListQuery) error
	MemberListQueries(ctx context.Context, cid string) ([]models.MemberListQuery, error)
	LinkMemberToQuery(ctx context.Context, queryID, cid, userID string) error
	// UnlinkMemberFromQueries removes userID from every query of cid.
	UnlinkMemberFromQueries(ctx context.Context, cid, userID string) error
	QueryMemberIDs(ctx context.Context, queryID string) ([]string, error)
}

// ReadRepository covers channel read cursors.
type ReadRepository interface {
	ChannelRead(ctx context.Context, cid, userID string) (*models.ChannelRead, error)
	SaveChannelRead(ctx context.Context, read *models.ChannelRead) error
	ChannelReadsForUser(ctx context.Context, userID string) ([]models.ChannelRead, error)
	DeleteChannelRead(ctx context.Context, cid, userID string) error

	// MarkChannelRead zeroes the counters and moves last_read_at to at,
	// never backwards. The read is created when missing; calling it twice
	// with the same arguments leaves the same row.
	MarkChannelRead(ctx context.Context, cid, userID string, at time.Time, messageID string) error
	// MarkChannelUnread overwrites the cursor with server-supplied values.
	MarkChannelUnread(ctx context.Context, cid, userID string, lastReadAt time.Time, lastReadMessageID string, unread int) error
}

// MessageRepository covers messages and each channel's loaded collection.
type MessageRepository interface {
	Message(ctx context.Context, id string) (*models.Message, error)
	SaveMessage(ctx context.Context, msg *models.Message) error
	DeleteMessage(ctx context.Context, id string) error

	AddMessageToChannel(ctx context.Context, cid, messageID string, createdAt time.Time) error
	RemoveMessageFromChannel(ctx context.Context, cid, messageID string) error
	ChannelMessageIDs(ctx context.Context, cid string) ([]string, error)
	ChannelMessageWindow(ctx context.Context, cid string) (models.MessageWindow, error)
}

type ThreadRepository interface {
	Thread(ctx context.Context, parentMessageID string) (*models.Thread, error)
	SaveThread(ctx context.Context, thread *models.Thread) error
	DeleteThread(ctx context.Context, parentMessageID string) error
	DeleteThreadsInChannel(ctx context.Context, cid string) (int, error)

	ThreadRead(ctx context.Context, parentMessageID, userID string) (*models.ThreadRead, error)
	MarkThreadRead(ctx context.Context, parentMessageID, userID string, at time.Time, messageID string) error
	MarkThreadUnread(ctx context.Context, parentMessageID, userID string, lastReadAt time.Time, unread int) error
	IncrementThreadUnread(ctx context.Context, parentMessageID, userID string) error
}

type ReactionRepository interface {
	Reaction(ctx context.Context, messageID, userID, reactionType string) (*models.Reaction, error)
	SaveReaction(ctx context.Context, reaction *models.Reaction) error
	// DeleteReaction reports whether a row was removed.
	DeleteReaction(ctx context.Context, messageID, userID, reactionType string) (bool, error)
	// DeleteUserReactions drops userID's reactions on the message except keepType.
	DeleteUserReactions(ctx context.Context, messageID, userID, keepType string) error
	MessageReactions(ctx context.Context, messageID string) ([]models.Reaction, error)
}

type ReminderRepository interface {
	Reminder(ctx context.Context, messageID string) (*models.Reminder, error)
	SaveReminder(ctx context.Context, reminder *models.Reminder) error
	DeleteReminder(ctx context.Context, messageID string) error
}

type DraftRepository interface {
	Draft(ctx context.Context, cid, parentID string) (*models.Draft, error)
	SaveDraft(ctx context.Context, draft *models.Draft) error
	DeleteDraft(ctx context.Context, cid, parentID string) error
}

// DeliveryRepository tracks messages waiting for a delivery receipt.
type DeliveryRepository interface {
	AddPendingDelivery(ctx context.Context, pending models.PendingDelivery) error
	// ClearPendingDeliveries drops pending rows of cid created at or before upTo.
	ClearPendingDeliveries(ctx context.Context, cid string, upTo time.Time) (int, error)
	PendingDeliveries(ctx context.Context) ([]models.PendingDelivery, error)
}

// ObservationRepository remembers which messages a counting middleware has
// already applied. Scopes keep units independent of each other.
type ObservationRepository interface {
	// MarkObserved records messageID under scope and reports true only the
	// first time.
	MarkObserved(ctx context.Context, scope, messageID string) (bool, error)
}

// DatabaseSession is everything the middlewares may touch.
type DatabaseSession interface {
	CurrentUserRepository
	UserRepository
	ChannelRepository
	MemberRepository
	ReadRepository
	MessageRepository
	ThreadRepository
	ReactionRepository
	ReminderRepository
	DraftRepository
	DeliveryRepository
	ObservationRepository
}
