package store

import (
	"context"
	"database/sql"

	"binna-crm/internal/domain"
)

const userColumns = "id, username, email, first_name, business_description, hashed_password, disabled, is_admin"

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, first_name, business_description, hashed_password, disabled, is_admin) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.Username, u.Email, u.FirstName, u.BusinessDescription, u.HashedPassword, u.Disabled, u.IsAdmin,
	)
	if err != nil {
		return duplicateOn(err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.BusinessDescription, &u.HashedPassword, &u.Disabled, &u.IsAdmin); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.BusinessDescription, &u.HashedPassword, &u.Disabled, &u.IsAdmin); err != nil {
		return nil, notFoundOn(err)
	}
	return &u, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *domain.UserSession) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		sess.Token, sess.UserID, formatTime(sess.ExpiresAt),
	)
	return duplicateOn(err)
}

func (s *Store) GetSession(ctx context.Context, token string) (*domain.UserSession, error) {
	var sess domain.UserSession
	var expires string
	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at FROM sessions WHERE token = ?", token,
	).Scan(&sess.Token, &sess.UserID, &expires)
	if err != nil {
		return nil, notFoundOn(err)
	}
	sess.ExpiresAt = parseTime(expires)
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}
