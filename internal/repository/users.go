package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/xiaot623/healthflow/internal/domain"
)

const userColumns = `id, email, full_name, role, password_hash, created_at`

// CreateUser inserts a user and sets its ID.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, full_name, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(user.Email), user.FullName, user.Role, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateEmail
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	user.Email = strings.ToLower(user.Email)
	return nil
}

// GetUserByID retrieves a user; nil when missing.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email; nil when missing.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	return scanUser(row)
}

// ListUsersByRole lists users with the given role ordered by id.
func (s *SQLiteStore) ListUsersByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY id`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// FindDoctorByName returns the first doctor whose name contains name,
// ignoring case; nil when none matches.
func (s *SQLiteStore) FindDoctorByName(ctx context.Context, name string) (*domain.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(name)) + "%"
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? AND lower(full_name) LIKE ? ESCAPE '\' ORDER BY id LIMIT 1`,
		domain.UserRoleDoctor, pattern)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
