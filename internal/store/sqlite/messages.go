package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/utils"
)

const messageColumns = `id, sender_id, receiver_id, content, timestamp, created_at`

// SaveMessage saves a direct message.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	if msg.ID == "" {
		msg.ID = utils.NewID()
	}
	msg.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessagesByReceiver lists messages addressed to a user in storage order.
func (s *SQLiteStore) ListMessagesByReceiver(ctx context.Context, receiverID string) ([]*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE receiver_id = ? ORDER BY rowid ASC`
	return queryMessages(ctx, s.db, query, receiverID)
}

// ListAllMessages lists every direct message in storage order.
func (s *SQLiteStore) ListAllMessages(ctx context.Context) ([]*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages ORDER BY rowid ASC`
	return queryMessages(ctx, s.db, query)
}

// ListConversation lists messages exchanged between two users in storage order.
func (s *SQLiteStore) ListConversation(ctx context.Context, a, b string) ([]*store.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY rowid ASC
	`
	return queryMessages(ctx, s.db, query, a, b, b, a)
}

func queryMessages(ctx context.Context, q querier, query string, args ...any) ([]*store.Message, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []*store.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func scanMessage(rows *sql.Rows) (*store.Message, error) {
	var msg store.Message
	if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Timestamp, &msg.CreatedAt); err != nil {
		return nil, err
	}
	return &msg, nil
}
