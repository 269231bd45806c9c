package repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

const noteColumns = `id, user_id, title, content, category, tags, is_pinned, is_archived, color,
	attachments, reminders, collaborators, version, coalesce(last_edited_by::text, ''), created_at, updated_at`

// noteVector must match the expression of notes_fts_idx.
const noteVector = `to_tsvector('english', coalesce(title,'') || ' ' || coalesce(content,''))`

var noteSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "lower(title)",
	"category":  "category",
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var n models.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Category, &n.Tags, &n.IsPinned, &n.IsArchived,
		&n.Color, &n.Attachments, &n.Reminders, &n.Collaborators, &n.Version, &n.LastEditedBy,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func (r *Repo) CreateNote(ctx context.Context, n *models.Note) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO notes (id, user_id, title, content, category, tags, is_pinned, is_archived, color,
			attachments, reminders, collaborators, version, last_edited_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, n.ID, n.UserID, n.Title, n.Content, n.Category, nonNil(n.Tags), n.IsPinned, n.IsArchived, n.Color,
		nonNil(n.Attachments), nonNil(n.Reminders), nonNil(n.Collaborators), n.Version, nullableID(n.LastEditedBy),
		n.CreatedAt, n.UpdatedAt)
	return err
}

func (r *Repo) GetNote(ctx context.Context, ownerID, id string) (*models.Note, error) {
	return scanNote(r.Pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`, id, ownerID))
}

func (r *Repo) UpdateNote(ctx context.Context, ownerID, id string, fn func(*models.Note) error) (*models.Note, error) {
	var out *models.Note
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		n, err := scanNote(tx.QueryRow(ctx,
			`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, ownerID))
		if err != nil {
			return err
		}
		if err := fn(n); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE notes
			SET title = $3, content = $4, category = $5, tags = $6, is_pinned = $7, is_archived = $8,
				color = $9, attachments = $10, reminders = $11, collaborators = $12, version = $13,
				last_edited_by = $14, updated_at = $15
			WHERE id = $1 AND user_id = $2
		`, id, ownerID, n.Title, n.Content, n.Category, nonNil(n.Tags), n.IsPinned, n.IsArchived,
			n.Color, nonNil(n.Attachments), nonNil(n.Reminders), nonNil(n.Collaborators), n.Version,
			nullableID(n.LastEditedBy), n.UpdatedAt)
		if err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) DeleteNote(ctx context.Context, ownerID, id string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListNotes searches with the full-text index plus an exact tag match and then
// orders by rank instead of the requested sort.
func (r *Repo) ListNotes(ctx context.Context, ownerID string, f store.NoteFilter, p query.Params) ([]*models.Note, int, error) {
	where := sq.And{sq.Eq{"user_id": ownerID}, sq.Eq{"is_archived": f.Archived}}
	if f.Category != "" {
		where = append(where, sq.Eq{"category": f.Category})
	}
	if f.Pinned != nil {
		where = append(where, sq.Eq{"is_pinned": *f.Pinned})
	}
	if p.Search != "" {
		where = append(where, sq.Or{
			sq.Expr(noteVector+" @@ plainto_tsquery('english', ?)", p.Search),
			sq.Expr("? = ANY(tags)", models.NormalizeTag(p.Search)),
		})
	}

	total, err := r.count(ctx, psql.Select("count(*)").From("notes").Where(where))
	if err != nil {
		return nil, 0, err
	}

	q := psql.Select(noteColumns).From("notes").Where(where)
	if !f.Archived {
		q = q.OrderBy("is_pinned DESC")
	}
	if p.Search != "" {
		q = q.OrderByClause("ts_rank("+noteVector+", plainto_tsquery('english', ?)) DESC", p.Search)
	} else {
		col, ok := noteSortColumns[p.SortBy]
		if !ok {
			col = "updated_at"
		}
		q = q.OrderBy(col + " " + direction(p.SortDesc))
	}
	q = page(q.OrderBy("seq ASC"), p)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notes := []*models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (r *Repo) NoteTags(ctx context.Context, ownerID string) ([]models.TagCount, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT tag, count(*)
		FROM notes, unnest(tags) AS tag
		WHERE user_id = $1 AND NOT is_archived
		GROUP BY tag
		ORDER BY count(*) DESC, tag ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []models.TagCount{}
	for rows.Next() {
		var t models.TagCount
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *Repo) NoteStats(ctx context.Context, ownerID string) (*models.NoteStats, error) {
	stats := &models.NoteStats{ByCategory: []models.CategoryCount{}}
	err := r.Pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE is_archived),
			count(*) FILTER (WHERE is_pinned),
			coalesce(sum(wc.words), 0)::bigint,
			coalesce(sum(char_length(content)), 0)::bigint
		FROM notes
		CROSS JOIN LATERAL (
			SELECT count(*) AS words FROM regexp_split_to_table(content, '\s+') AS w WHERE w <> ''
		) AS wc
		WHERE user_id = $1
	`, ownerID).Scan(&stats.Overview.Total, &stats.Overview.Archived, &stats.Overview.Pinned,
		&stats.Overview.TotalWords, &stats.Overview.TotalCharacters)
	if err != nil {
		return nil, err
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT category, count(*)
		FROM notes
		WHERE user_id = $1 AND NOT is_archived
		GROUP BY category
		ORDER BY count(*) DESC, category ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		stats.ByCategory = append(stats.ByCategory, c)
	}
	return stats, rows.Err()
}
