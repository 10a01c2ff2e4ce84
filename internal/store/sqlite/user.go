package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anvers-dev/blogapi/internal/model"
	"github.com/anvers-dev/blogapi/internal/store"
)

const userCols = `id, username, email, password_hash, bio, created_at`

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, bio, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, user.ID, user.Username, user.Email, user.Password, user.Bio, user.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *Store) FindUserByLogin(ctx context.Context, username, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+userCols+` FROM users WHERE username = ? OR email = ? LIMIT 1
`, username, email)
	return scanUser(row)
}

func (s *Store) UpdateUser(ctx context.Context, id, username, email, bio string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE users SET username = ?, email = ?, bio = ? WHERE id = ?
`, username, email, bio, id)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return errIfNoRows(res)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return errIfNoRows(res)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return errIfNoRows(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var created int64
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Bio, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

func errIfNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
