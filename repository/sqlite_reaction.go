package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteReactionRepo struct {
	db database.TxQuerier
}

func NewSQLiteReactionRepo(db database.TxQuerier) ReactionRepository {
	return &sqliteReactionRepo{db: db}
}

func (r *sqliteReactionRepo) Reaction(ctx context.Context, messageID, userID, reactionType string) (*models.Reaction, error) {
	var (
		rc                   models.Reaction
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT message_id, user_id, type, score, created_at, updated_at
		FROM reactions WHERE message_id = ? AND user_id = ? AND type = ?`,
		messageID, userID, reactionType,
	).Scan(&rc.MessageID, &rc.UserID, &rc.Type, &rc.Score, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("reaction %s by %s on %s", reactionType, userID, messageID))
	}
	rc.CreatedAt = fromNanos(createdAt)
	rc.UpdatedAt = fromNanos(updatedAt)
	return &rc, nil
}

// SaveReaction upserts on the (message, user, type) key.
func (r *sqliteReactionRepo) SaveReaction(ctx context.Context, rc *models.Reaction) error {
	score := rc.Score
	if score == 0 {
		score = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reactions (message_id, user_id, type, score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id, user_id, type) DO UPDATE SET
			score = excluded.score,
			updated_at = excluded.updated_at`,
		rc.MessageID, rc.UserID, rc.Type, score, toNanos(rc.CreatedAt), toNanos(rc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save reaction %s on %s: %w", rc.Type, rc.MessageID, err)
	}
	return nil
}

func (r *sqliteReactionRepo) DeleteReaction(ctx context.Context, messageID, userID, reactionType string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND type = ?`,
		messageID, userID, reactionType)
	if err != nil {
		return false, fmt.Errorf("failed to delete reaction %s on %s: %w", reactionType, messageID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted reactions: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteReactionRepo) DeleteUserReactions(ctx context.Context, messageID, userID, keepType string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND type != ?`,
		messageID, userID, keepType)
	if err != nil {
		return fmt.Errorf("failed to delete reactions of %s on %s: %w", userID, messageID, err)
	}
	return nil
}

// MessageReactions lists the reactions of one message, oldest first.
func (r *sqliteReactionRepo) MessageReactions(ctx context.Context, messageID string) ([]models.Reaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, user_id, type, score, created_at, updated_at
		FROM reactions WHERE message_id = ? ORDER BY created_at, user_id, type`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions of %s: %w", messageID, err)
	}
	defer rows.Close()

	var out []models.Reaction
	for rows.Next() {
		var (
			rc                   models.Reaction
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&rc.MessageID, &rc.UserID, &rc.Type, &rc.Score, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		rc.CreatedAt = fromNanos(createdAt)
		rc.UpdatedAt = fromNanos(updatedAt)
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}
	return out, nil
}
