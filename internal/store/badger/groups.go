package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/utils"
)

type groupRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
	Seq       uint64    `json:"seq"`
}

// CreateGroup stores the group, one membership marker per distinct member, and the
// member -> group index.
func (s *BadgerStore) CreateGroup(ctx context.Context, group *store.Group) error {
	seq, err := s.nextSeq()
	if err != nil {
		return err
	}
	if group.ID == "" {
		group.ID = utils.NewID()
	}
	group.CreatedAt = time.Now().UTC()

	rec := groupRecord{
		ID:        group.ID,
		Name:      group.Name,
		Members:   lo.Uniq(group.Members),
		CreatedAt: group.CreatedAt,
		Seq:       seq,
	}

	err = s.update(ctx, func(txn *badger.Txn) error {
		taken, err := exists(txn, key(prefixGroup, rec.ID))
		if err != nil {
			return err
		}
		if taken {
			return store.ErrAlreadyExists
		}
		if err := setJSON(txn, key(prefixGroup, rec.ID), rec); err != nil {
			return err
		}
		for _, userID := range rec.Members {
			if err := setMembership(txn, rec, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group with its members and message history.
func (s *BadgerStore) GetGroup(ctx context.Context, id string) (*store.Group, error) {
	var group *store.Group
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		group, err = loadGroup(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapGroupErr(err)
	}
	return group, nil
}

// AddGroupMember appends a member to an existing group.
func (s *BadgerStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		var rec groupRecord
		if err := getJSON(txn, key(prefixGroup, groupID), &rec); err != nil {
			return err
		}
		member, err := exists(txn, key(prefixGroupMember, groupID, userID))
		if err != nil {
			return err
		}
		if member {
			return store.ErrAlreadyExists
		}
		rec.Members = append(rec.Members, userID)
		if err := setJSON(txn, key(prefixGroup, groupID), rec); err != nil {
			return err
		}
		return setMembership(txn, rec, userID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("group: %w", store.ErrNotFound)
		}
		return fmt.Errorf("insert group member: %w", err)
	}
	return nil
}

// AppendGroupMessage appends a message to a group's history.
func (s *BadgerStore) AppendGroupMessage(ctx context.Context, groupID string, msg *store.Message) error {
	seq, err := s.nextSeq()
	if err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = utils.NewID()
	}
	msg.CreatedAt = time.Now().UTC()
	rec := newMessageRecord(msg)

	err = s.update(ctx, func(txn *badger.Txn) error {
		found, err := exists(txn, key(prefixGroup, groupID))
		if err != nil {
			return err
		}
		if !found {
			return store.ErrNotFound
		}
		return setJSON(txn, key(prefixGroupMessage, groupID, seqPart(seq)), rec)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("group: %w", store.ErrNotFound)
		}
		return fmt.Errorf("insert group message: %w", err)
	}
	return nil
}

// ListGroupsByMember lists groups a user belongs to, in creation order.
func (s *BadgerStore) ListGroupsByMember(ctx context.Context, userID string) ([]*store.Group, error) {
	groups := []*store.Group{}
	prefix := key(prefixMemberGroup, userID) + sep
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, prefix, func(_ string, item *badger.Item) error {
			groupID, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			group, err := loadGroup(txn, string(groupID))
			if err != nil {
				return err
			}
			groups = append(groups, group)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	return groups, nil
}

// setMembership writes the group -> member marker and the member -> group index entry.
// The index is keyed by the group's sequence so scans return groups in creation order.
func setMembership(txn *badger.Txn, rec groupRecord, userID string) error {
	if err := txn.Set([]byte(key(prefixGroupMember, rec.ID, userID)), nil); err != nil {
		return err
	}
	return txn.Set([]byte(key(prefixMemberGroup, userID, seqPart(rec.Seq))), []byte(rec.ID))
}

func loadGroup(txn *badger.Txn, id string) (*store.Group, error) {
	var rec groupRecord
	if err := getJSON(txn, key(prefixGroup, id), &rec); err != nil {
		return nil, err
	}

	group := &store.Group{
		ID:        rec.ID,
		Name:      rec.Name,
		Members:   rec.Members,
		Messages:  []*store.Message{},
		CreatedAt: rec.CreatedAt,
	}
	if group.Members == nil {
		group.Members = []string{}
	}

	err := scanPrefix(txn, key(prefixGroupMessage, id)+sep, func(_ string, item *badger.Item) error {
		msg, err := decodeMessage(item)
		if err != nil {
			return err
		}
		group.Messages = append(group.Messages, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func wrapGroupErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("group: %w", store.ErrNotFound)
	}
	return fmt.Errorf("query group: %w", err)
}

