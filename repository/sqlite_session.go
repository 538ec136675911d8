package repository

import (
	"context"
	"database/sql"

	"github.com/akinalp/mqvi-sync/database"
)

// sqliteSession composes the per-entity SQLite repos over one TxQuerier.
// Inside Store.InTx that querier is the batch *sql.Tx.
type sqliteSession struct {
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

// NewSQLiteSession builds a session over db (a *sql.Tx or *sql.DB).
func NewSQLiteSession(db database.TxQuerier) DatabaseSession {
	return &sqliteSession{
		CurrentUserRepository: NewSQLiteCurrentUserRepo(db),
		UserRepository:        NewSQLiteUserRepo(db),
		ChannelRepository:     NewSQLiteChannelRepo(db),
		MemberRepository:      NewSQLiteMemberRepo(db),
		ReadRepository:        NewSQLiteReadRepo(db),
		MessageRepository:     NewSQLiteMessageRepo(db),
		ThreadRepository:      NewSQLiteThreadRepo(db),
		ReactionRepository:    NewSQLiteReactionRepo(db),
		ReminderRepository:    NewSQLiteReminderRepo(db),
		DraftRepository:       NewSQLiteDraftRepo(db),
		DeliveryRepository:    NewSQLiteDeliveryRepo(db),
		ObservationRepository: NewSQLiteObservationRepo(db),
	}
}

// Store opens sessions over the shared connection pool.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn with a session bound to a fresh write transaction. fn's
// error rolls everything back; a commit failure wraps database.ErrCommit.
func (s *Store) InTx(ctx context.Context, fn func(session DatabaseSession) error) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(NewSQLiteSession(tx))
	})
}

// Reader returns a session outside any transaction, for read-only callers
// such as the status endpoint.
func (s *Store) Reader() DatabaseSession {
	return NewSQLiteSession(s.db)
}
