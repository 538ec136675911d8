package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteThreadRepo struct {
	db database.TxQuerier
}

func NewSQLiteThreadRepo(db database.TxQuerier) ThreadRepository {
	return &sqliteThreadRepo{db: db}
}

func (r *sqliteThreadRepo) Thread(ctx context.Context, parentMessageID string) (*models.Thread, error) {
	var (
		t                    models.Thread
		latest               string
		lastMessageAt        sql.NullInt64
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT parent_message_id, cid, reply_count, latest_reply_ids, last_message_at, created_at, updated_at
		FROM threads WHERE parent_message_id = ?`, parentMessageID,
	).Scan(&t.ParentMessageID, &t.CID, &t.ReplyCount, &latest, &lastMessageAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err, "thread "+parentMessageID)
	}

	if t.LatestReplyIDs, err = decodeIDs(latest); err != nil {
		return nil, err
	}
	t.LastMessageAt = timePtr(lastMessageAt)
	t.CreatedAt = fromNanos(createdAt)
	t.UpdatedAt = fromNanos(updatedAt)
	return &t, nil
}

func (r *sqliteThreadRepo) SaveThread(ctx context.Context, t *models.Thread) error {
	latest, err := encodeIDs(t.LatestReplyIDs)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO threads (parent_message_id, cid, reply_count, latest_reply_ids, last_message_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(parent_message_id) DO UPDATE SET
			cid = excluded.cid,
			reply_count = excluded.reply_count,
			latest_reply_ids = excluded.latest_reply_ids,
			last_message_at = excluded.last_message_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		t.ParentMessageID, t.CID, t.ReplyCount, latest, nullNanos(t.LastMessageAt),
		toNanos(t.CreatedAt), toNanos(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save thread %s: %w", t.ParentMessageID, err)
	}
	return nil
}

// DeleteThread removes the thread and every read cursor in it.
func (r *sqliteThreadRepo) DeleteThread(ctx context.Context, parentMessageID string) error {
	for _, q := range []string{
		`DELETE FROM thread_reads WHERE parent_message_id = ?`,
		`DELETE FROM threads WHERE parent_message_id = ?`,
	} {
		if _, err := r.db.ExecContext(ctx, q, parentMessageID); err != nil {
			return fmt.Errorf("failed to delete thread %s: %w", parentMessageID, err)
		}
	}
	return nil
}

// DeleteThreadsInChannel returns how many threads were removed.
func (r *sqliteThreadRepo) DeleteThreadsInChannel(ctx context.Context, cid string) (int, error) {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM thread_reads
		WHERE parent_message_id IN (SELECT parent_message_id FROM threads WHERE cid = ?)`, cid); err != nil {
		return 0, fmt.Errorf("failed to delete thread reads of %s: %w", cid, err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE cid = ?`, cid)
	if err != nil {
		return 0, fmt.Errorf("failed to delete threads of %s: %w", cid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted threads of %s: %w", cid, err)
	}
	return int(n), nil
}

// ─── Thread reads ───

func (r *sqliteThreadRepo) ThreadRead(ctx context.Context, parentMessageID, userID string) (*models.ThreadRead, error) {
	var (
		rd         models.ThreadRead
		lastReadAt sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT parent_message_id, user_id, last_read_at, last_read_message_id, unread_replies
		FROM thread_reads WHERE parent_message_id = ? AND user_id = ?`, parentMessageID, userID,
	).Scan(&rd.ParentMessageID, &rd.UserID, &lastReadAt, &rd.LastReadMessageID, &rd.UnreadReplies)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("thread read of %s in %s", userID, parentMessageID))
	}
	rd.LastReadAt = timePtr(lastReadAt)
	return &rd, nil
}

func (r *sqliteThreadRepo) MarkThreadRead(ctx context.Context, parentMessageID, userID string, at time.Time, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO thread_reads (parent_message_id, user_id, last_read_at, last_read_message_id, unread_replies)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(parent_message_id, user_id) DO UPDATE SET
			last_read_at = MAX(COALESCE(last_read_at, 0), excluded.last_read_at),
			last_read_message_id = CASE
				WHEN excluded.last_read_message_id != '' THEN excluded.last_read_message_id
				ELSE last_read_message_id
			END,
			unread_replies = 0`,
		parentMessageID, userID, toNanos(at), messageID)
	if err != nil {
		return fmt.Errorf("failed to mark thread %s read for %s: %w", parentMessageID, userID, err)
	}
	return nil
}

func (r *sqliteThreadRepo) MarkThreadUnread(ctx context.Context, parentMessageID, userID string, lastReadAt time.Time, unread int) error {
	var at any
	if !lastReadAt.IsZero() {
		at = lastReadAt.UnixNano()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO thread_reads (parent_message_id, user_id, last_read_at, unread_replies)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(parent_message_id, user_id) DO UPDATE SET
			last_read_at = excluded.last_read_at,
			unread_replies = excluded.unread_replies`,
		parentMessageID, userID, at, max(unread, 0))
	if err != nil {
		return fmt.Errorf("failed to mark thread %s unread for %s: %w", parentMessageID, userID, err)
	}
	return nil
}

// IncrementThreadUnread creates the thread read with one unread reply when
// it does not exist yet.
func (r *sqliteThreadRepo) IncrementThreadUnread(ctx context.Context, parentMessageID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO thread_reads (parent_message_id, user_id, unread_replies) VALUES (?, ?, 1)
		ON CONFLICT(parent_message_id, user_id) DO UPDATE SET unread_replies = unread_replies + 1`,
		parentMessageID, userID)
	if err != nil {
		return fmt.Errorf("failed to increment thread %s unread for %s: %w", parentMessageID, userID, err)
	}
	return nil
}
