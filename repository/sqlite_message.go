package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteMessageRepo struct {
	db database.TxQuerier
}

func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Message(ctx context.Context, id string) (*models.Message, error) {
	var (
		m                    models.Message
		msgType, restricted  string
		createdAt, updatedAt int64
		deletedAt            sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cid, user_id, text, type, parent_id, show_in_channel, silent, shadowed,
		       restricted_visibility, reply_count, created_at, updated_at, deleted_at
		FROM messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.CID, &m.UserID, &m.Text, &msgType, &m.ParentID, &m.ShowInChannel, &m.Silent,
		&m.Shadowed, &restricted, &m.ReplyCount, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, notFound(err, "message "+id)
	}

	if m.RestrictedVisibility, err = decodeIDs(restricted); err != nil {
		return nil, err
	}
	m.Type = models.MessageType(msgType)
	m.CreatedAt = fromNanos(createdAt)
	m.UpdatedAt = fromNanos(updatedAt)
	m.DeletedAt = timePtr(deletedAt)
	return &m, nil
}

// SaveMessage replaces the stored message with m.
func (r *sqliteMessageRepo) SaveMessage(ctx context.Context, m *models.Message) error {
	restricted, err := encodeIDs(m.RestrictedVisibility)
	if err != nil {
		return err
	}
	msgType := m.Type
	if msgType == "" {
		msgType = models.MessageTypeRegular
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO messages (id, cid, user_id, text, type, parent_id, show_in_channel, silent, shadowed,
		                      restricted_visibility, reply_count, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cid = excluded.cid,
			user_id = excluded.user_id,
			text = excluded.text,
			type = excluded.type,
			parent_id = excluded.parent_id,
			show_in_channel = excluded.show_in_channel,
			silent = excluded.silent,
			shadowed = excluded.shadowed,
			restricted_visibility = excluded.restricted_visibility,
			reply_count = excluded.reply_count,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`,
		m.ID, m.CID, m.UserID, m.Text, string(msgType), m.ParentID, m.ShowInChannel, m.Silent, m.Shadowed,
		restricted, m.ReplyCount, toNanos(m.CreatedAt), toNanos(m.UpdatedAt), nullNanos(m.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to save message %s: %w", m.ID, err)
	}
	return nil
}

// DeleteMessage hard-deletes the row, its reactions and its place in any
// channel collection.
func (r *sqliteMessageRepo) DeleteMessage(ctx context.Context, id string) error {
	for _, q := range []string{
		`DELETE FROM reactions WHERE message_id = ?`,
		`DELETE FROM channel_messages WHERE message_id = ?`,
		`DELETE FROM messages WHERE id = ?`,
	} {
		if _, err := r.db.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete message %s: %w", id, err)
		}
	}
	return nil
}

// ─── Channel collection ───

func (r *sqliteMessageRepo) AddMessageToChannel(ctx context.Context, cid, messageID string, createdAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_messages (cid, message_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(cid, message_id) DO UPDATE SET created_at = excluded.created_at`,
		cid, messageID, toNanos(createdAt))
	if err != nil {
		return fmt.Errorf("failed to add message %s to %s: %w", messageID, cid, err)
	}
	return nil
}

func (r *sqliteMessageRepo) RemoveMessageFromChannel(ctx context.Context, cid, messageID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM channel_messages WHERE cid = ? AND message_id = ?`, cid, messageID)
	if err != nil {
		return fmt.Errorf("failed to remove message %s from %s: %w", messageID, cid, err)
	}
	return nil
}

// ChannelMessageIDs lists the loaded collection, oldest first.
func (r *sqliteMessageRepo) ChannelMessageIDs(ctx context.Context, cid string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT message_id FROM channel_messages WHERE cid = ? ORDER BY created_at, message_id`, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of %s: %w", cid, err)
	}
	return scanStrings(rows)
}

func (r *sqliteMessageRepo) ChannelMessageWindow(ctx context.Context, cid string) (models.MessageWindow, error) {
	var oldest, newest sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MIN(created_at), MAX(created_at) FROM channel_messages WHERE cid = ?`, cid,
	).Scan(&oldest, &newest)
	if err != nil {
		return models.MessageWindow{}, fmt.Errorf("failed to load message window of %s: %w", cid, err)
	}
	if !oldest.Valid || !newest.Valid {
		return models.MessageWindow{Empty: true}, nil
	}
	return models.MessageWindow{
		Oldest: fromNanos(oldest.Int64),
		Newest: fromNanos(newest.Int64),
	}, nil
}
