package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteChannelRepo struct {
	db database.TxQuerier
}

func NewSQLiteChannelRepo(db database.TxQuerier) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

func (r *sqliteChannelRepo) Channel(ctx context.Context, cid string) (*models.Channel, error) {
	var (
		c                      models.Channel
		truncatedAt, deletedAt sql.NullInt64
		createdAt, updatedAt   int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT cid, type, id, name, hidden, truncated_at, muted, delivery_events_enabled,
		       is_member, member_count, watcher_count, created_at, updated_at, deleted_at
		FROM channels WHERE cid = ?`, cid,
	).Scan(&c.CID, &c.Type, &c.ID, &c.Name, &c.Hidden, &truncatedAt, &c.Muted,
		&c.DeliveryEventsEnabled, &c.IsMember, &c.MemberCount, &c.WatcherCount,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, notFound(err, "channel "+cid)
	}

	c.TruncatedAt = timePtr(truncatedAt)
	c.DeletedAt = timePtr(deletedAt)
	c.CreatedAt = fromNanos(createdAt)
	c.UpdatedAt = fromNanos(updatedAt)
	return &c, nil
}

// SaveChannel upserts every column. Callers load, modify and save; they
// never write a partially filled channel over an existing row.
func (r *sqliteChannelRepo) SaveChannel(ctx context.Context, c *models.Channel) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channels (cid, type, id, name, hidden, truncated_at, muted, delivery_events_enabled,
		                      is_member, member_count, watcher_count, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cid) DO UPDATE SET
			type = excluded.type,
			id = excluded.id,
			name = excluded.name,
			hidden = excluded.hidden,
			truncated_at = excluded.truncated_at,
			muted = excluded.muted,
			delivery_events_enabled = excluded.delivery_events_enabled,
			is_member = excluded.is_member,
			member_count = excluded.member_count,
			watcher_count = excluded.watcher_count,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`,
		c.CID, c.Type, c.ID, c.Name, c.Hidden, nullNanos(c.TruncatedAt), c.Muted, c.DeliveryEventsEnabled,
		c.IsMember, c.MemberCount, c.WatcherCount, toNanos(c.CreatedAt), toNanos(c.UpdatedAt), nullNanos(c.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to save channel %s: %w", c.CID, err)
	}
	return nil
}

// DeleteChannel removes the channel row and its live sets. Messages, reads
// and threads are left to their own explicit deletes.
func (r *sqliteChannelRepo) DeleteChannel(ctx context.Context, cid string) error {
	for _, q := range []string{
		`DELETE FROM channel_typing WHERE cid = ?`,
		`DELETE FROM channel_watchers WHERE cid = ?`,
		`DELETE FROM channels WHERE cid = ?`,
	} {
		if _, err := r.db.ExecContext(ctx, q, cid); err != nil {
			return fmt.Errorf("failed to delete channel %s: %w", cid, err)
		}
	}
	return nil
}

func (r *sqliteChannelRepo) SetMembership(ctx context.Context, cid string, isMember bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE channels SET is_member = ? WHERE cid = ?`, isMember, cid)
	if err != nil {
		return fmt.Errorf("failed to set membership for %s: %w", cid, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(sql.ErrNoRows, "channel "+cid)
	}
	return nil
}

// ─── Watchers ───

func (r *sqliteChannelRepo) AddWatcher(ctx context.Context, cid, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO channel_watchers (cid, user_id) VALUES (?, ?)`, cid, userID)
	if err != nil {
		return fmt.Errorf("failed to add watcher %s to %s: %w", userID, cid, err)
	}
	return nil
}

func (r *sqliteChannelRepo) RemoveWatcher(ctx context.Context, cid, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM channel_watchers WHERE cid = ? AND user_id = ?`, cid, userID)
	if err != nil {
		return fmt.Errorf("failed to remove watcher %s from %s: %w", userID, cid, err)
	}
	return nil
}

func (r *sqliteChannelRepo) WatcherIDs(ctx context.Context, cid string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM channel_watchers WHERE cid = ? ORDER BY user_id`, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchers of %s: %w", cid, err)
	}
	return scanStrings(rows)
}

// ─── Typing ───

func (r *sqliteChannelRepo) AddTypingUser(ctx context.Context, cid, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_typing (cid, user_id, started_at) VALUES (?, ?, ?)
		ON CONFLICT(cid, user_id) DO UPDATE SET started_at = excluded.started_at`,
		cid, userID, toNanos(at))
	if err != nil {
		return fmt.Errorf("failed to add typing user %s to %s: %w", userID, cid, err)
	}
	return nil
}

func (r *sqliteChannelRepo) RemoveTypingUser(ctx context.Context, cid, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM channel_typing WHERE cid = ? AND user_id = ?`, cid, userID)
	if err != nil {
		return fmt.Errorf("failed to remove typing user %s from %s: %w", userID, cid, err)
	}
	return nil
}

func (r *sqliteChannelRepo) TypingUserIDs(ctx context.Context, cid string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM channel_typing WHERE cid = ? ORDER BY started_at, user_id`, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to list typing users of %s: %w", cid, err)
	}
	return scanStrings(rows)
}
