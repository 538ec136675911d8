package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
)

type sqliteMemberRepo struct {
	db database.TxQuerier
}

func NewSQLiteMemberRepo(db database.TxQuerier) MemberRepository {
	return &sqliteMemberRepo{db: db}
}

func (r *sqliteMemberRepo) Member(ctx context.Context, cid, userID string) (*models.Member, error) {
	var (
		m                          models.Member
		banExpires, accepted, rejd sql.NullInt64
		createdAt, updatedAt       int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT cid, user_id, role, banned, shadow_banned, ban_expires_at, invited,
		       invite_accepted_at, invite_rejected_at, created_at, updated_at
		FROM channel_members WHERE cid = ? AND user_id = ?`, cid, userID,
	).Scan(&m.CID, &m.UserID, &m.Role, &m.Banned, &m.ShadowBanned, &banExpires, &m.Invited,
		&accepted, &rejd, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("member %s in %s", userID, cid))
	}

	m.BanExpiresAt = timePtr(banExpires)
	m.InviteAcceptedAt = timePtr(accepted)
	m.InviteRejectedAt = timePtr(rejd)
	m.CreatedAt = fromNanos(createdAt)
	m.UpdatedAt = fromNanos(updatedAt)
	return &m, nil
}

func (r *sqliteMemberRepo) SaveMember(ctx context.Context, m *models.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_members (cid, user_id, role, banned, shadow_banned, ban_expires_at, invited,
		                             invite_accepted_at, invite_rejected_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cid, user_id) DO UPDATE SET
			role = excluded.role,
			banned = excluded.banned,
			shadow_banned = excluded.shadow_banned,
			ban_expires_at = excluded.ban_expires_at,
			invited = excluded.invited,
			invite_accepted_at = excluded.invite_accepted_at,
			invite_rejected_at = excluded.invite_rejected_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		m.CID, m.UserID, m.Role, m.Banned, m.ShadowBanned, nullNanos(m.BanExpiresAt), m.Invited,
		nullNanos(m.InviteAcceptedAt), nullNanos(m.InviteRejectedAt), toNanos(m.CreatedAt), toNanos(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save member %s in %s: %w", m.UserID, m.CID, err)
	}
	return nil
}

func (r *sqliteMemberRepo) DeleteMember(ctx context.Context, cid, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM channel_members WHERE cid = ? AND user_id = ?`, cid, userID)
	if err != nil {
		return fmt.Errorf("failed to delete member %s from %s: %w", userID, cid, err)
	}
	return nil
}

func (r *sqliteMemberRepo) ChannelMemberIDs(ctx context.Context, cid string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM channel_members WHERE cid = ? ORDER BY created_at, user_id`, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s: %w", cid, err)
	}
	return scanStrings(rows)
}

// ─── Member-list queries ───

func (r *sqliteMemberRepo) SaveMemberListQuery(ctx context.Context, q models.MemberListQuery) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO member_list_queries (id, cid, filter, unfiltered) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET filter = excluded.filter, unfiltered = excluded.unfiltered`,
		q.ID, q.CID, q.Filter, q.Unfiltered)
	if err != nil {
		return fmt.Errorf("failed to save member list query %s: %w", q.ID, err)
	}
	return nil
}

func (r *sqliteMemberRepo) MemberListQueries(ctx context.Context, cid string) ([]models.MemberListQuery, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cid, filter, unfiltered FROM member_list_queries WHERE cid = ? ORDER BY id`, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to list member queries of %s: %w", cid, err)
	}
	defer rows.Close()

	var queries []models.MemberListQuery
	for rows.Next() {
		var q models.MemberListQuery
		if err := rows.Scan(&q.ID, &q.CID, &q.Filter, &q.Unfiltered); err != nil {
			return nil, fmt.Errorf("failed to scan member query: %w", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member queries: %w", err)
	}
	return queries, nil
}

func (r *sqliteMemberRepo) LinkMemberToQuery(ctx context.Context, queryID, cid, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO member_list_query_members (query_id, cid, user_id) VALUES (?, ?, ?)`,
		queryID, cid, userID)
	if err != nil {
		return fmt.Errorf("failed to link member %s to query %s: %w", userID, queryID, err)
	}
	return nil
}

func (r *sqliteMemberRepo) UnlinkMemberFromQueries(ctx context.Context, cid, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM member_list_query_members WHERE cid = ? AND user_id = ?`, cid, userID)
	if err != nil {
		return fmt.Errorf("failed to unlink member %s in %s: %w", userID, cid, err)
	}
	return nil
}

func (r *sqliteMemberRepo) QueryMemberIDs(ctx context.Context, queryID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM member_list_query_members WHERE query_id = ? ORDER BY user_id`, queryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of query %s: %w", queryID, err)
	}
	return scanStrings(rows)
}
