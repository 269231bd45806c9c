package repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

const taskColumns = `id, user_id, title, description, status, priority, category, due_date, reminder_date,
	completed_at, estimated_duration, actual_duration, tags, subtasks, attachments, created_at, updated_at`

const priorityRank = `CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 ELSE 0 END`

var taskSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"dueDate":   "due_date",
	"priority":  priorityRank,
	"title":     "lower(title)",
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Category,
		&t.DueDate, &t.ReminderDate, &t.CompletedAt, &t.EstimatedDuration, &t.ActualDuration,
		&t.Tags, &t.Subtasks, &t.Attachments, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func collectTasks(rows pgx.Rows) ([]*models.Task, error) {
	defer rows.Close()

	out := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) CreateTask(ctx context.Context, t *models.Task) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, t.ID, t.UserID, t.Title, t.Description, t.Status, t.Priority, t.Category, t.DueDate, t.ReminderDate,
		t.CompletedAt, t.EstimatedDuration, t.ActualDuration, nonNil(t.Tags), nonNil(t.Subtasks),
		nonNil(t.Attachments), t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *Repo) GetTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	return scanTask(r.Pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID))
}

func (r *Repo) UpdateTask(ctx context.Context, ownerID, id string, fn func(*models.Task) error) (*models.Task, error) {
	var out *models.Task
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		t, err := scanTask(tx.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, ownerID))
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE tasks
			SET title = $3, description = $4, status = $5, priority = $6, category = $7,
				due_date = $8, reminder_date = $9, completed_at = $10, estimated_duration = $11,
				actual_duration = $12, tags = $13, subtasks = $14, attachments = $15, updated_at = $16
			WHERE id = $1 AND user_id = $2
		`, id, ownerID, t.Title, t.Description, t.Status, t.Priority, t.Category,
			t.DueDate, t.ReminderDate, t.CompletedAt, t.EstimatedDuration,
			t.ActualDuration, nonNil(t.Tags), nonNil(t.Subtasks), nonNil(t.Attachments), t.UpdatedAt)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) DeleteTask(ctx context.Context, ownerID, id string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func taskWhere(ownerID string, f store.TaskFilter, search string) sq.And {
	where := sq.And{sq.Eq{"user_id": ownerID}}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.Priority != "" {
		where = append(where, sq.Eq{"priority": f.Priority})
	}
	if f.Category != "" {
		where = append(where, sq.Eq{"category": f.Category})
	}
	if search != "" {
		pattern := query.EscapeLike(search)
		where = append(where, sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
			sq.Expr("EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE ?)", pattern),
		})
	}
	return where
}

func (r *Repo) ListTasks(ctx context.Context, ownerID string, f store.TaskFilter, p query.Params) ([]*models.Task, int, error) {
	where := taskWhere(ownerID, f, p.Search)

	total, err := r.count(ctx, psql.Select("count(*)").From("tasks").Where(where))
	if err != nil {
		return nil, 0, err
	}

	col, ok := taskSortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	order := fmt.Sprintf("%s %s", col, direction(p.SortDesc))
	if p.SortBy == "dueDate" {
		order += " NULLS LAST"
	}
	q := page(psql.Select(taskColumns).From("tasks").Where(where).OrderBy(order, "seq ASC"), p)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, err
	}
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *Repo) ListOverdueTasks(ctx context.Context, ownerID string, now time.Time) ([]*models.Task, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1 AND due_date IS NOT NULL AND due_date < $2 AND status <> 'completed'
		ORDER BY due_date ASC, seq ASC
	`, ownerID, now)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *Repo) TaskStats(ctx context.Context, ownerID string, now time.Time) (*models.TaskStats, error) {
	stats := &models.TaskStats{}
	err := r.Pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'in_progress'),
			count(*) FILTER (WHERE status <> 'completed' AND due_date IS NOT NULL AND due_date < $2)
		FROM tasks
		WHERE user_id = $1
	`, ownerID, now).Scan(&stats.Overview.Total, &stats.Overview.Completed, &stats.Overview.Pending,
		&stats.Overview.InProgress, &stats.Overview.Overdue)
	if err != nil {
		return nil, err
	}

	if stats.ByCategory, err = r.taskGroups(ctx, ownerID, "category"); err != nil {
		return nil, err
	}
	if stats.ByPriority, err = r.taskGroups(ctx, ownerID, "priority"); err != nil {
		return nil, err
	}
	return stats, nil
}

// taskGroups counts tasks per value of column, which must be a trusted name.
func (r *Repo) taskGroups(ctx context.Context, ownerID, column string) ([]models.TaskGroupCount, error) {
	rows, err := r.Pool.Query(ctx, fmt.Sprintf(`
		SELECT %[1]s, count(*), count(*) FILTER (WHERE status = 'completed')
		FROM tasks
		WHERE user_id = $1
		GROUP BY %[1]s
		ORDER BY count(*) DESC, %[1]s ASC
	`, column), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TaskGroupCount{}
	for rows.Next() {
		var g models.TaskGroupCount
		if err := rows.Scan(&g.Key, &g.Count, &g.Completed); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
