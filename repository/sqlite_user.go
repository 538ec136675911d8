package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
)

type sqliteCurrentUserRepo struct {
	db database.TxQuerier
}

func NewSQLiteCurrentUserRepo(db database.TxQuerier) CurrentUserRepository {
	return &sqliteCurrentUserRepo{db: db}
}

// CurrentUser returns pkg.ErrNoCurrentUser until SaveCurrentUser ran once.
func (r *sqliteCurrentUserRepo) CurrentUser(ctx context.Context) (*models.CurrentUser, error) {
	var (
		u     models.CurrentUser
		muted string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, muted_user_ids, delivery_receipts_enabled FROM local_user WHERE id = 1`,
	).Scan(&u.UserID, &muted, &u.DeliveryReceiptsEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNoCurrentUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}

	if u.MutedUserIDs, err = decodeIDs(muted); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *sqliteCurrentUserRepo) SaveCurrentUser(ctx context.Context, u *models.CurrentUser) error {
	muted, err := encodeIDs(u.MutedUserIDs)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO local_user (id, user_id, muted_user_ids, delivery_receipts_enabled)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			muted_user_ids = excluded.muted_user_ids,
			delivery_receipts_enabled = excluded.delivery_receipts_enabled`,
		u.UserID, muted, u.DeliveryReceiptsEnabled)
	if err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}
	return nil
}

type sqliteUserRepo struct {
	db database.TxQuerier
}

func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) User(ctx context.Context, id string) (*models.User, error) {
	var (
		u         models.User
		lastSeen  sql.NullInt64
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, role, banned, online, last_seen, updated_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Role, &u.Banned, &u.Online, &lastSeen, &updatedAt)
	if err != nil {
		return nil, notFound(err, "user "+id)
	}
	u.LastSeen = timePtr(lastSeen)
	u.UpdatedAt = fromNanos(updatedAt)
	return &u, nil
}

// SaveUser upserts the user row.
func (r *sqliteUserRepo) SaveUser(ctx context.Context, u *models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, role, banned, online, last_seen, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			banned = excluded.banned,
			online = excluded.online,
			last_seen = excluded.last_seen,
			updated_at = excluded.updated_at`,
		u.ID, u.Name, u.Role, u.Banned, u.Online, nullNanos(u.LastSeen), toNanos(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", u.ID, err)
	}
	return nil
}
