package badger

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/utils"
)

type userRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	Seq          uint64    `json:"seq"`
}

func (r *userRecord) toUser() *store.User {
	return &store.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

// CreateUser stores the user record together with its email and name indexes.
func (s *BadgerStore) CreateUser(ctx context.Context, user *store.User) error {
	seq, err := s.nextSeq()
	if err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = utils.NewID()
	}
	user.CreatedAt = time.Now().UTC()

	rec := userRecord{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		Seq:          seq,
	}

	return s.update(ctx, func(txn *badger.Txn) error {
		for _, k := range []string{key(prefixUser, rec.ID), key(prefixUserEmail, rec.Email), key(prefixUserName, rec.Name)} {
			taken, err := exists(txn, k)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("insert user: %w", store.ErrAlreadyExists)
			}
		}

		if err := setJSON(txn, key(prefixUser, rec.ID), rec); err != nil {
			return err
		}
		if err := txn.Set([]byte(key(prefixUserEmail, rec.Email)), []byte(rec.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(key(prefixUserName, rec.Name)), []byte(rec.ID))
	})
}

// GetUserByID retrieves a user with its derived friend lists.
func (s *BadgerStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	var user *store.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		user, err = loadUser(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *BadgerStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUserByIndex(ctx, key(prefixUserEmail, email))
}

// GetUserByName retrieves a user by name.
func (s *BadgerStore) GetUserByName(ctx context.Context, name string) (*store.User, error) {
	return s.getUserByIndex(ctx, key(prefixUserName, name))
}

func (s *BadgerStore) getUserByIndex(ctx context.Context, indexKey string) (*store.User, error) {
	var user *store.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, err := getString(txn, indexKey)
		if err != nil {
			return err
		}
		user, err = loadUser(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// ListUsers lists all users in registration order.
func (s *BadgerStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	var records []userRecord
	var users []*store.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		err := scanPrefix(txn, prefixUser, func(_ string, item *badger.Item) error {
			var rec userRecord
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
		if err != nil {
			return err
		}

		slices.SortFunc(records, func(a, b userRecord) int {
			return cmp.Compare(a.Seq, b.Seq)
		})

		for i := range records {
			user := records[i].toUser()
			if err := loadFriendLists(txn, user); err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UserExists checks if a user with the given ID exists.
func (s *BadgerStore) UserExists(ctx context.Context, id string) (bool, error) {
	var found bool
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		found, err = exists(txn, key(prefixUser, id))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return found, nil
}

func loadUser(txn *badger.Txn, id string) (*store.User, error) {
	var rec userRecord
	if err := getJSON(txn, key(prefixUser, id), &rec); err != nil {
		return nil, err
	}
	user := rec.toUser()
	if err := loadFriendLists(txn, user); err != nil {
		return nil, err
	}
	return user, nil
}

func loadFriendLists(txn *badger.Txn, user *store.User) error {
	friendships, err := listFriendships(txn, user.ID, nil)
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

func wrapUserErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user: %w", store.ErrNotFound)
	}
	return fmt.Errorf("query user: %w", err)
}
