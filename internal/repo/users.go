package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, avatar,
	preferences, role, is_active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Avatar,
		&u.Preferences, &u.Role, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Avatar,
		u.Preferences, u.Role, u.IsActive, u.LastLogin, u.CreatedAt, u.UpdatedAt)
	return conflict(err)
}

func (r *Repo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email))
}

func (r *Repo) UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	var out *models.User
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET username = $2, email = lower($3), password_hash = $4, first_name = $5, last_name = $6,
				avatar = $7, preferences = $8, role = $9, is_active = $10, last_login = $11, updated_at = $12
			WHERE id = $1
		`, id, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.Avatar, u.Preferences, u.Role, u.IsActive, u.LastLogin, u.UpdatedAt)
		if err != nil {
			return conflict(err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
