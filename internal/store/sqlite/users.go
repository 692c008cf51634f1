package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/utils"
)

const userColumns = `id, name, email, password_hash, created_at`

// CreateUser creates a new user. Email and name are unique.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *store.User) error {
	if user.ID == "" {
		user.ID = utils.NewID()
	}
	user.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user: %w", store.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID together with its friend lists.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("user", err)
	}
	if err := s.loadFriendLists(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound("user", err)
	}
	if err := s.loadFriendLists(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByName retrieves a user by name.
func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE name = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, notFound("user", err)
	}
	if err := s.loadFriendLists(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers lists all users in registration order.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY rowid ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for _, user := range users {
		if err := s.loadFriendLists(ctx, user); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// UserExists checks if a user with the given ID exists.
func (s *SQLiteStore) UserExists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// loadFriendLists fills Friends and PendingFriendRequests from the friendships table.
// Friends are ordered by acceptance time, pending requests by arrival.
func (s *SQLiteStore) loadFriendLists(ctx context.Context, user *store.User) error {
	friendships, err := s.ListFriendships(ctx, user.ID, nil)
	if err != nil {
		return err
	}

	user.Friends = []string{}
	user.PendingFriendRequests = []string{}
	for _, f := range friendships {
		switch {
		case f.Status == store.FriendStatusAccepted:
			user.Friends = append(user.Friends, f.Other(user.ID))
		case f.Status == store.FriendStatusPending && f.ReceiverID == user.ID:
			user.PendingFriendRequests = append(user.PendingFriendRequests, f.SenderID)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*store.User, error) {
	var user store.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}
