package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/chatbot-server/internal/store"
)

const friendshipColumns = `sender_id, receiver_id, status, created_at, updated_at`

// CreateFriendRequest inserts a pending friendship. The pair key is the primary key,
// so a second record for the same pair in either direction fails.
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, senderID, receiverID string) (*store.Friendship, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO friendships (pair_key, sender_id, receiver_id, status, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, store.PairKey(senderID, receiverID), senderID, receiverID, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert friend request: %w", store.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("insert friend request: %w", err)
	}

	return &store.Friendship{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     store.FriendStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// AcceptFriendRequest flips a pending request to accepted.
func (s *SQLiteStore) AcceptFriendRequest(ctx context.Context, senderID, receiverID string) error {
	query := `
		UPDATE friendships
		SET status = 'accepted', updated_at = ?
		WHERE pair_key = ? AND sender_id = ? AND receiver_id = ? AND status = 'pending'
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), store.PairKey(senderID, receiverID), senderID, receiverID)
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("pending friend request: %w", store.ErrNotFound)
	}
	return nil
}

// GetFriendship retrieves the friendship between two users (in either direction).
func (s *SQLiteStore) GetFriendship(ctx context.Context, userID, otherID string) (*store.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE pair_key = ?`
	friendship, err := scanFriendship(s.db.QueryRowContext(ctx, query, store.PairKey(userID, otherID)))
	if err != nil {
		return nil, notFound("friendship", err)
	}
	return friendship, nil
}

// ListFriendships lists friendships for a user, optionally filtered by status.
func (s *SQLiteStore) ListFriendships(ctx context.Context, userID string, status *store.FriendStatus) ([]*store.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (sender_id = ? OR receiver_id = ?)
	`
	args := []any{userID, userID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY updated_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	defer rows.Close()

	var friendships []*store.Friendship
	for rows.Next() {
		friendship, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		friendships = append(friendships, friendship)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}
	return friendships, nil
}

// DeleteFriendship removes the pair's record if it has the given status.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, userID, otherID string, status store.FriendStatus) error {
	query := `DELETE FROM friendships WHERE pair_key = ? AND status = ?`
	result, err := s.db.ExecContext(ctx, query, store.PairKey(userID, otherID), string(status))
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("friendship: %w", store.ErrNotFound)
	}
	return nil
}

func scanFriendship(row rowScanner) (*store.Friendship, error) {
	var f store.Friendship
	var status string
	if err := row.Scan(&f.SenderID, &f.ReceiverID, &status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Status = store.FriendStatus(status)
	return &f, nil
}
