package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrUniqueViolation = "23505"

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository is the production Repository. It serializes concurrent
// writers properly, which the file-backed store cannot.
//
// Expected schema:
//
//	create table users (
//	    id              text primary key,
//	    name            text not null,
//	    email           text not null unique,
//	    phone           text not null default '',
//	    role            text not null,
//	    hashed_password text not null,
//	    created_at      timestamptz not null default now(),
//	    updated_at      timestamptz not null default now()
//	);
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository wraps an open connection pool (pgx stdlib driver).
func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
		insert into users (id, name, email, phone, role, hashed_password, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Name, u.Email, u.Phone, u.Role, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		select id, name, email, phone, role, created_at, updated_at
		from users
		order by created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail returns (nil, nil) when no user matches.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := r.findOne(ctx, "email", NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (r *PostgresRepository) findOne(ctx context.Context, column, value string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		select id, name, email, phone, role, hashed_password, created_at, updated_at
		from users
		where `+column+` = $1
	`, value).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch UpdateInput) (*User, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := applyPatch(*current, patch)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx, `
		update users
		set name = $2, email = $3, phone = $4, role = $5, updated_at = $6
		where id = $1
	`, id, updated.Name, updated.Email, updated.Phone, updated.Role, updated.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &updated, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ChangePassword(ctx context.Context, id, current, next string) error {
	if next == "" {
		return ErrInvalidInput
	}
	var storedHash string
	err := r.db.QueryRowContext(ctx, `select hashed_password from users where id = $1`, id).Scan(&storedHash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := VerifyPassword(storedHash, current); err != nil {
		return ErrWrongPassword
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		update users set hashed_password = $2, updated_at = $3 where id = $1
	`, id, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
