package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteDeliveryRepo struct {
	db database.TxQuerier
}

func NewSQLiteDeliveryRepo(db database.TxQuerier) DeliveryRepository {
	return &sqliteDeliveryRepo{db: db}
}

func (r *sqliteDeliveryRepo) AddPendingDelivery(ctx context.Context, p models.PendingDelivery) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pending_deliveries (cid, message_id, created_at) VALUES (?, ?, ?)`,
		p.CID, p.MessageID, toNanos(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to queue delivery of %s: %w", p.MessageID, err)
	}
	return nil
}

func (r *sqliteDeliveryRepo) ClearPendingDeliveries(ctx context.Context, cid string, upTo time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_deliveries WHERE cid = ? AND created_at <= ?`, cid, toNanos(upTo))
	if err != nil {
		return 0, fmt.Errorf("failed to clear deliveries of %s: %w", cid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared deliveries: %w", err)
	}
	return int(n), nil
}

func (r *sqliteDeliveryRepo) PendingDeliveries(ctx context.Context) ([]models.PendingDelivery, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cid, message_id, created_at FROM pending_deliveries ORDER BY created_at, message_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deliveries: %w", err)
	}
	defer rows.Close()

	var out []models.PendingDelivery
	for rows.Next() {
		var (
			p         models.PendingDelivery
			createdAt int64
		)
		if err := rows.Scan(&p.CID, &p.MessageID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending delivery: %w", err)
		}
		p.CreatedAt = fromNanos(createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending deliveries: %w", err)
	}
	return out, nil
}
