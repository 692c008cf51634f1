package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/utils"
)

// CreateGroup creates a group and its initial members in one transaction.
// Repeated member ids are stored once.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *store.Group) error {
	if group.ID == "" {
		group.ID = utils.NewID()
	}
	group.CreatedAt = time.Now().UTC()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_groups (id, name, created_at) VALUES (?, ?, ?)`,
			group.ID, group.Name, group.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert group: %w", store.ErrAlreadyExists)
			}
			return fmt.Errorf("insert group: %w", err)
		}

		for _, userID := range group.Members {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
				group.ID, userID, group.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert group member: %w", err)
			}
		}
		return nil
	})
}

// GetGroup retrieves a group with its members and message history.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*store.Group, error) {
	group, err := s.getGroup(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadGroupDetails(ctx, s.db, group); err != nil {
		return nil, err
	}
	return group, nil
}

// AddGroupMember appends a member to an existing group.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := groupExists(ctx, tx, groupID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
			groupID, userID, time.Now().UTC(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert group member: %w", store.ErrAlreadyExists)
			}
			return fmt.Errorf("insert group member: %w", err)
		}
		return nil
	})
}

// AppendGroupMessage appends a message to a group's history.
func (s *SQLiteStore) AppendGroupMessage(ctx context.Context, groupID string, msg *store.Message) error {
	if msg.ID == "" {
		msg.ID = utils.NewID()
	}
	msg.CreatedAt = time.Now().UTC()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := groupExists(ctx, tx, groupID); err != nil {
			return err
		}
		query := `
			INSERT INTO group_messages (id, group_id, sender_id, receiver_id, content, timestamp, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			msg.ID, groupID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp, msg.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert group message: %w", err)
		}
		return nil
	})
}

// ListGroupsByMember lists groups a user belongs to, in creation order.
func (s *SQLiteStore) ListGroupsByMember(ctx context.Context, userID string) ([]*store.Group, error) {
	query := `
		SELECT g.id, g.name, g.created_at
		FROM chat_groups g
		INNER JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = ?
		ORDER BY g.rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []*store.Group{}
	for rows.Next() {
		var group store.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	for _, group := range groups {
		if err := s.loadGroupDetails(ctx, s.db, group); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *SQLiteStore) getGroup(ctx context.Context, q querier, id string) (*store.Group, error) {
	var group store.Group
	err := q.QueryRowContext(ctx, `SELECT id, name, created_at FROM chat_groups WHERE id = ?`, id).
		Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err != nil {
		return nil, notFound("group", err)
	}
	return &group, nil
}

func (s *SQLiteStore) loadGroupDetails(ctx context.Context, q querier, group *store.Group) error {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id FROM group_members WHERE group_id = ? ORDER BY rowid ASC`, group.ID)
	if err != nil {
		return fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	group.Members = []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("scan group member: %w", err)
		}
		group.Members = append(group.Members, userID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate group members: %w", err)
	}

	messages, err := queryMessages(ctx, q, `
		SELECT `+messageColumns+`
		FROM group_messages
		WHERE group_id = ?
		ORDER BY rowid ASC
	`, group.ID)
	if err != nil {
		return err
	}
	group.Messages = messages
	return nil
}

func groupExists(ctx context.Context, q querier, groupID string) error {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM chat_groups WHERE id = ?)`, groupID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check group exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("group: %w", store.ErrNotFound)
	}
	return nil
}
