package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteDraftRepo struct {
	db database.TxQuerier
}

func NewSQLiteDraftRepo(db database.TxQuerier) DraftRepository {
	return &sqliteDraftRepo{db: db}
}

func (r *sqliteDraftRepo) Draft(ctx context.Context, cid, parentID string) (*models.Draft, error) {
	var (
		d         models.Draft
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT cid, parent_id, text, created_at FROM drafts WHERE cid = ? AND parent_id = ?`, cid, parentID,
	).Scan(&d.CID, &d.ParentID, &d.Text, &createdAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("draft in %s/%s", cid, parentID))
	}
	d.CreatedAt = fromNanos(createdAt)
	return &d, nil
}

func (r *sqliteDraftRepo) SaveDraft(ctx context.Context, d *models.Draft) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO drafts (cid, parent_id, text, created_at) VALUES (?, ?, ?, ?)`,
		d.CID, d.ParentID, d.Text, toNanos(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save draft in %s: %w", d.CID, err)
	}
	return nil
}

func (r *sqliteDraftRepo) DeleteDraft(ctx context.Context, cid, parentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE cid = ? AND parent_id = ?`, cid, parentID)
	if err != nil {
		return fmt.Errorf("failed to delete draft in %s: %w", cid, err)
	}
	return nil
}
