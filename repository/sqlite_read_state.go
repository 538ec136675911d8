package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteReadRepo struct {
	db database.TxQuerier
}

func NewSQLiteReadRepo(db database.TxQuerier) ReadRepository {
	return &sqliteReadRepo{db: db}
}

const readColumns = `cid, user_id, last_read_at, last_read_message_id, last_delivered_at,
	last_delivered_message_id, unread_messages, unread_silent_messages, unread_thread_replies`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannelRead(row rowScanner) (*models.ChannelRead, error) {
	var (
		rd            models.ChannelRead
		lastReadAt    int64
		lastDelivered sql.NullInt64
	)
	if err := row.Scan(&rd.CID, &rd.UserID, &lastReadAt, &rd.LastReadMessageID, &lastDelivered,
		&rd.LastDeliveredMessageID, &rd.UnreadMessages, &rd.UnreadSilentMessages, &rd.UnreadThreadReplies); err != nil {
		return nil, err
	}
	rd.LastReadAt = fromNanos(lastReadAt)
	rd.LastDeliveredAt = timePtr(lastDelivered)
	return &rd, nil
}

func (r *sqliteReadRepo) ChannelRead(ctx context.Context, cid, userID string) (*models.ChannelRead, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+readColumns+` FROM channel_reads WHERE cid = ? AND user_id = ?`, cid, userID)
	rd, err := scanChannelRead(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("read of %s in %s", userID, cid))
	}
	return rd, nil
}

// SaveChannelRead upserts the read. Counters below zero are clamped; the
// CHECK constraint would reject them anyway.
func (r *sqliteReadRepo) SaveChannelRead(ctx context.Context, rd *models.ChannelRead) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_reads (`+readColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cid, user_id) DO UPDATE SET
			last_read_at = excluded.last_read_at,
			last_read_message_id = excluded.last_read_message_id,
			last_delivered_at = excluded.last_delivered_at,
			last_delivered_message_id = excluded.last_delivered_message_id,
			unread_messages = excluded.unread_messages,
			unread_silent_messages = excluded.unread_silent_messages,
			unread_thread_replies = excluded.unread_thread_replies`,
		rd.CID, rd.UserID, toNanos(rd.LastReadAt), rd.LastReadMessageID, nullNanos(rd.LastDeliveredAt),
		rd.LastDeliveredMessageID, max(rd.UnreadMessages, 0), max(rd.UnreadSilentMessages, 0),
		max(rd.UnreadThreadReplies, 0))
	if err != nil {
		return fmt.Errorf("failed to save read of %s in %s: %w", rd.UserID, rd.CID, err)
	}
	return nil
}

func (r *sqliteReadRepo) ChannelReadsForUser(ctx context.Context, userID string) ([]models.ChannelRead, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+readColumns+` FROM channel_reads WHERE user_id = ? ORDER BY cid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reads of %s: %w", userID, err)
	}
	defer rows.Close()

	var reads []models.ChannelRead
	for rows.Next() {
		rd, err := scanChannelRead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan read: %w", err)
		}
		reads = append(reads, *rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reads: %w", err)
	}
	return reads, nil
}

func (r *sqliteReadRepo) DeleteChannelRead(ctx context.Context, cid, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM channel_reads WHERE cid = ? AND user_id = ?`, cid, userID)
	if err != nil {
		return fmt.Errorf("failed to delete read of %s in %s: %w", userID, cid, err)
	}
	return nil
}

// MarkChannelRead is a single upsert: MAX() keeps last_read_at monotonic
// and an empty messageID keeps the previous last_read_message_id.
func (r *sqliteReadRepo) MarkChannelRead(ctx context.Context, cid, userID string, at time.Time, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_reads (cid, user_id, last_read_at, last_read_message_id,
		                           unread_messages, unread_silent_messages, unread_thread_replies)
		VALUES (?, ?, ?, ?, 0, 0, 0)
		ON CONFLICT(cid, user_id) DO UPDATE SET
			last_read_at = MAX(last_read_at, excluded.last_read_at),
			last_read_message_id = CASE
				WHEN excluded.last_read_message_id != '' THEN excluded.last_read_message_id
				ELSE last_read_message_id
			END,
			unread_messages = 0,
			unread_silent_messages = 0,
			unread_thread_replies = 0`,
		cid, userID, toNanos(at), messageID)
	if err != nil {
		return fmt.Errorf("failed to mark %s read for %s: %w", cid, userID, err)
	}
	return nil
}

func (r *sqliteReadRepo) MarkChannelUnread(ctx context.Context, cid, userID string, lastReadAt time.Time, lastReadMessageID string, unread int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_reads (cid, user_id, last_read_at, last_read_message_id, unread_messages)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cid, user_id) DO UPDATE SET
			last_read_at = excluded.last_read_at,
			last_read_message_id = excluded.last_read_message_id,
			unread_messages = excluded.unread_messages`,
		cid, userID, toNanos(lastReadAt), lastReadMessageID, max(unread, 0))
	if err != nil {
		return fmt.Errorf("failed to mark %s unread for %s: %w", cid, userID, err)
	}
	return nil
}
