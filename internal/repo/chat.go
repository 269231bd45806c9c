package repo

import (
	"context"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
)

const messageColumns = `id, user_id, session_id, role, content, context, metadata, attachments, reactions,
	is_edited, edit_history, is_deleted, deleted_at, created_at, updated_at`

func scanMessage(row pgx.Row) (*models.ChatMessage, error) {
	var m models.ChatMessage
	err := row.Scan(&m.ID, &m.UserID, &m.SessionID, &m.Role, &m.Content, &m.Context, &m.Metadata,
		&m.Attachments, &m.Reactions, &m.IsEdited, &m.EditHistory, &m.IsDeleted, &m.DeletedAt,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *Repo) queryMessages(ctx context.Context, q sq.SelectBuilder) ([]*models.ChatMessage, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.ChatMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func liveSession(ownerID, sessionID string) sq.And {
	where := sq.And{sq.Eq{"user_id": ownerID}, sq.Eq{"is_deleted": false}}
	if sessionID != "" {
		where = append(where, sq.Eq{"session_id": sessionID})
	}
	return where
}

func (r *Repo) AppendMessage(ctx context.Context, m *models.ChatMessage) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO chat_messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, m.ID, m.UserID, m.SessionID, m.Role, m.Content, m.Context, m.Metadata, nonNil(m.Attachments),
		nonNil(m.Reactions), m.IsEdited, nonNil(m.EditHistory), m.IsDeleted, m.DeletedAt, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *Repo) RecentMessages(ctx context.Context, ownerID, sessionID string, n int) ([]*models.ChatMessage, error) {
	msgs, err := r.queryMessages(ctx, psql.Select(messageColumns).From("chat_messages").
		Where(liveSession(ownerID, sessionID)).
		OrderBy("created_at DESC", "seq DESC").
		Limit(uint64(n)))
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (r *Repo) SessionHistory(ctx context.Context, ownerID, sessionID string, p query.Params) ([]*models.ChatMessage, int, error) {
	where := liveSession(ownerID, sessionID)
	total, err := r.count(ctx, psql.Select("count(*)").From("chat_messages").Where(where))
	if err != nil {
		return nil, 0, err
	}
	msgs, err := r.queryMessages(ctx, page(psql.Select(messageColumns).From("chat_messages").
		Where(where).OrderBy("created_at ASC", "seq ASC"), p))
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *Repo) ListSessions(ctx context.Context, ownerID string, p query.Params) ([]models.ChatSession, int, error) {
	var total int
	err := r.Pool.QueryRow(ctx, `
		SELECT count(DISTINCT session_id) FROM chat_messages WHERE user_id = $1 AND NOT is_deleted
	`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT session_id, content, role, created_at, message_count
		FROM (
			SELECT DISTINCT ON (session_id)
				session_id, content, role, created_at,
				count(*) OVER (PARTITION BY session_id) AS message_count
			FROM chat_messages
			WHERE user_id = $1 AND NOT is_deleted
			ORDER BY session_id, created_at DESC, seq DESC
		) AS latest
		ORDER BY created_at DESC, session_id ASC
		LIMIT $2 OFFSET $3
	`, ownerID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sessions := []models.ChatSession{}
	for rows.Next() {
		var s models.ChatSession
		if err := rows.Scan(&s.SessionID, &s.LastMessage.Content, &s.LastMessage.Role,
			&s.LastMessage.CreatedAt, &s.MessageCount); err != nil {
			return nil, 0, err
		}
		s.LastActivity = s.LastMessage.CreatedAt
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *Repo) DeleteSession(ctx context.Context, ownerID, sessionID string, now time.Time) (int, error) {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE chat_messages
		SET is_deleted = true, deleted_at = $3, updated_at = $3
		WHERE user_id = $1 AND session_id = $2 AND NOT is_deleted
	`, ownerID, sessionID, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repo) UpdateMessage(ctx context.Context, ownerID, id string, fn func(*models.ChatMessage) error) (*models.ChatMessage, error) {
	var out *models.ChatMessage
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		m, err := scanMessage(tx.QueryRow(ctx, `
			SELECT `+messageColumns+` FROM chat_messages
			WHERE id = $1 AND user_id = $2 AND NOT is_deleted
			FOR UPDATE
		`, id, ownerID))
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE chat_messages
			SET content = $3, metadata = $4, reactions = $5, is_edited = $6, edit_history = $7,
				is_deleted = $8, deleted_at = $9, updated_at = $10
			WHERE id = $1 AND user_id = $2
		`, id, ownerID, m.Content, m.Metadata, nonNil(m.Reactions), m.IsEdited, nonNil(m.EditHistory),
			m.IsDeleted, m.DeletedAt, m.UpdatedAt)
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) SearchMessages(ctx context.Context, ownerID, sessionID string, p query.Params) ([]*models.ChatMessage, int, error) {
	where := append(liveSession(ownerID, sessionID), sq.ILike{"content": query.EscapeLike(p.Search)})
	total, err := r.count(ctx, psql.Select("count(*)").From("chat_messages").Where(where))
	if err != nil {
		return nil, 0, err
	}
	msgs, err := r.queryMessages(ctx, page(psql.Select(messageColumns).From("chat_messages").
		Where(where).OrderBy("created_at DESC", "seq DESC"), p))
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *Repo) ChatStats(ctx context.Context, ownerID string, from, to *time.Time) (*models.ChatStats, error) {
	where := liveSession(ownerID, "")
	if from != nil && to != nil {
		where = append(where, sq.GtOrEq{"created_at": *from}, sq.LtOrEq{"created_at": *to})
	}
	sqlStr, args, err := psql.Select(
		"count(*)",
		"coalesce(sum((metadata->'tokens'->>'total')::int), 0)::bigint",
		"coalesce(avg((metadata->>'responseTime')::float8), 0)",
		"count(DISTINCT session_id)",
	).From("chat_messages").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	stats := &models.ChatStats{}
	err = r.Pool.QueryRow(ctx, sqlStr, args...).Scan(&stats.TotalMessages, &stats.TotalTokens,
		&stats.AvgResponseTime, &stats.SessionCount)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
