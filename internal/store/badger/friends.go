package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vovakirdan/chatbot-server/internal/store"
)

type friendshipRecord struct {
	SenderID   string             `json:"senderId"`
	ReceiverID string             `json:"receiverId"`
	Status     store.FriendStatus `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	// Seq orders friendships by their last status change.
	Seq uint64 `json:"seq"`
}

func (r *friendshipRecord) toFriendship() *store.Friendship {
	return &store.Friendship{
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// CreateFriendRequest stores a pending friendship unless the pair already has one.
func (s *BadgerStore) CreateFriendRequest(ctx context.Context, senderID, receiverID string) (*store.Friendship, error) {
	seq, err := s.nextSeq()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	pair := store.PairKey(senderID, receiverID)
	rec := friendshipRecord{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     store.FriendStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		Seq:        seq,
	}

	err = s.update(ctx, func(txn *badger.Txn) error {
		taken, err := exists(txn, key(prefixFriendship, pair))
		if err != nil {
			return err
		}
		if taken {
			return store.ErrAlreadyExists
		}
		if err := setJSON(txn, key(prefixFriendship, pair), rec); err != nil {
			return err
		}
		if err := txn.Set([]byte(key(prefixFriendshipByUser, senderID, pair)), nil); err != nil {
			return err
		}
		return txn.Set([]byte(key(prefixFriendshipByUser, receiverID, pair)), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}
	return rec.toFriendship(), nil
}

// AcceptFriendRequest flips a pending senderID -> receiverID request to accepted.
func (s *BadgerStore) AcceptFriendRequest(ctx context.Context, senderID, receiverID string) error {
	seq, err := s.nextSeq()
	if err != nil {
		return err
	}
	pair := store.PairKey(senderID, receiverID)

	err = s.update(ctx, func(txn *badger.Txn) error {
		var rec friendshipRecord
		if err := getJSON(txn, key(prefixFriendship, pair), &rec); err != nil {
			return err
		}
		if rec.Status != store.FriendStatusPending || rec.SenderID != senderID || rec.ReceiverID != receiverID {
			return store.ErrNotFound
		}
		rec.Status = store.FriendStatusAccepted
		rec.UpdatedAt = time.Now().UTC()
		rec.Seq = seq
		return setJSON(txn, key(prefixFriendship, pair), rec)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("pending friend request: %w", store.ErrNotFound)
		}
		return fmt.Errorf("accept friend request: %w", err)
	}
	return nil
}

// GetFriendship retrieves the friendship between two users (in either direction).
func (s *BadgerStore) GetFriendship(ctx context.Context, userID, otherID string) (*store.Friendship, error) {
	var rec friendshipRecord
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, key(prefixFriendship, store.PairKey(userID, otherID)), &rec)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("friendship: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query friendship: %w", err)
	}
	return rec.toFriendship(), nil
}

// ListFriendships lists friendships for a user, optionally filtered by status.
func (s *BadgerStore) ListFriendships(ctx context.Context, userID string, status *store.FriendStatus) ([]*store.Friendship, error) {
	var friendships []*store.Friendship
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		friendships, err = listFriendships(txn, userID, status)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	return friendships, nil
}

// DeleteFriendship removes the pair's record and its index entries if the status matches.
func (s *BadgerStore) DeleteFriendship(ctx context.Context, userID, otherID string, status store.FriendStatus) error {
	pair := store.PairKey(userID, otherID)
	err := s.update(ctx, func(txn *badger.Txn) error {
		var rec friendshipRecord
		if err := getJSON(txn, key(prefixFriendship, pair), &rec); err != nil {
			return err
		}
		if rec.Status != status {
			return store.ErrNotFound
		}
		for _, k := range []string{
			key(prefixFriendship, pair),
			key(prefixFriendshipByUser, rec.SenderID, pair),
			key(prefixFriendshipByUser, rec.ReceiverID, pair),
		} {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("friendship: %w", store.ErrNotFound)
		}
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

func listFriendships(txn *badger.Txn, userID string, status *store.FriendStatus) ([]*store.Friendship, error) {
	prefix := key(prefixFriendshipByUser, userID) + sep

	var records []friendshipRecord
	err := scanPrefix(txn, prefix, func(k string, _ *badger.Item) error {
		pair, err := decodePart(strings.TrimPrefix(k, prefix))
		if err != nil {
			return err
		}
		var rec friendshipRecord
		if err := getJSON(txn, key(prefixFriendship, pair), &rec); err != nil {
			return err
		}
		if status == nil || rec.Status == *status {
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(records, func(a, b friendshipRecord) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	friendships := make([]*store.Friendship, 0, len(records))
	for i := range records {
		friendships = append(friendships, records[i].toFriendship())
	}
	return friendships, nil
}
