package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

const userColumns = `id, email, password_hash, first_name, last_name, is_active, is_staff, date_joined`

func scanUser(row interface{ Scan(...any) error }) (*entity.User, error) {
	var (
		u      entity.User
		joined string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsStaff, &joined); err != nil {
		return nil, err
	}
	var err error
	if u.DateJoined, err = parseTime(joined); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *entity.User) error {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	u.Email = strings.TrimSpace(u.Email)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, is_active, is_staff, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.IsStaff, formatTime(u.DateJoined))
	if err != nil {
		return fmt.Errorf("sqlite: insert user %q: %w", u.Email, err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get user %d", id))
	}
	return u, nil
}

// GetUserByEmail matches case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, strings.TrimSpace(email)))
	if err != nil {
		return nil, notFound(err, "get user by email")
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]entity.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
