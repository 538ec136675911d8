package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/mqvi-sync/database"
)

type sqliteObservationRepo struct {
	db database.TxQuerier
}

func NewSQLiteObservationRepo(db database.TxQuerier) ObservationRepository {
	return &sqliteObservationRepo{db: db}
}

func (r *sqliteObservationRepo) MarkObserved(ctx context.Context, scope, messageID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO observed_messages (scope, message_id) VALUES (?, ?)`, scope, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to mark %s observed (%s): %w", messageID, scope, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check observation of %s: %w", messageID, err)
	}
	return n == 1, nil
}
