package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteReminderRepo struct {
	db database.TxQuerier
}

func NewSQLiteReminderRepo(db database.TxQuerier) ReminderRepository {
	return &sqliteReminderRepo{db: db}
}

func (r *sqliteReminderRepo) Reminder(ctx context.Context, messageID string) (*models.Reminder, error) {
	var (
		rm                   models.Reminder
		remindAt             sql.NullInt64
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT message_id, cid, user_id, remind_at, created_at, updated_at
		FROM reminders WHERE message_id = ?`, messageID,
	).Scan(&rm.MessageID, &rm.CID, &rm.UserID, &remindAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err, "reminder "+messageID)
	}
	rm.RemindAt = timePtr(remindAt)
	rm.CreatedAt = fromNanos(createdAt)
	rm.UpdatedAt = fromNanos(updatedAt)
	return &rm, nil
}

// SaveReminder replaces the whole row; there is no partial merge.
func (r *sqliteReminderRepo) SaveReminder(ctx context.Context, rm *models.Reminder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reminders (message_id, cid, user_id, remind_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rm.MessageID, rm.CID, rm.UserID, nullNanos(rm.RemindAt), toNanos(rm.CreatedAt), toNanos(rm.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save reminder %s: %w", rm.MessageID, err)
	}
	return nil
}

func (r *sqliteReminderRepo) DeleteReminder(ctx context.Context, messageID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE message_id = ?`, messageID); err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", messageID, err)
	}
	return nil
}
