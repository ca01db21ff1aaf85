package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emrekoc/butika-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*AdminUser, error) {
	u := &AdminUser{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, full_name, created_at
		FROM admin_users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("admin %s: %w", email, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresRepo) Create(ctx context.Context, u *AdminUser) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, password_hash, full_name)
		VALUES ($1,$2,$3,$4)`,
		u.ID, u.Email, u.PasswordHash, u.FullName)
	return err
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n)
	return n, err
}
