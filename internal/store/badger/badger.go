// Package badger implements store.Store on top of an embedded Badger key-value database.
//
// Records are JSON documents under prefixed keys. Secondary indexes are separate keys
// written in the same transaction as the record they point to, and list order comes from
// a persisted sequence.
package badger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatbot-server/internal/store"
)

const (
	prefixUser             = "user:"
	prefixUserEmail        = "user_email:"
	prefixUserName         = "user_name:"
	prefixFriendship       = "friendship:"
	prefixFriendshipByUser = "friendship_by_user:"
	prefixMessage          = "msg:"
	prefixMessageTo        = "msg_to:"
	prefixMessagePair      = "msg_pair:"
	prefixGroup            = "group:"
	prefixGroupMember      = "group_member:"
	prefixMemberGroup      = "member_group:"
	prefixGroupMessage     = "group_msg:"

	sequenceKey       = "seq:order"
	sequenceBandwidth = 128

	// maxConflictRetries bounds how often a transaction is re-run after losing a commit race.
	maxConflictRetries = 5

	// sep separates variable-length id components inside a key.
	sep = "\x00"
)

// BadgerStore implements store.Store for Badger.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// New opens (or creates) a Badger database at path. An empty path or ":memory:" opens an
// in-memory database.
func New(path string, log zerolog.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" || path == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(badgerLogger{log: log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("get sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release sequence: %w", err)
	}
	return s.db.Close()
}

// nextSeq returns the next value of the store-wide ordering sequence.
func (s *BadgerStore) nextSeq() (uint64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return n, nil
}

// update runs fn in a read-write transaction, re-running it when the commit conflicts
// with a concurrent transaction.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("transaction conflict after %d attempts: %w", maxConflictRetries, err)
}

func (s *BadgerStore) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("get %q: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func getString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return string(val), nil
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("get %q: %w", key, err)
}

// scanPrefix calls fn for every key under prefix in key order.
func scanPrefix(txn *badger.Txn, prefix string, fn func(key string, item *badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		if err := fn(string(item.Key()), item); err != nil {
			return err
		}
	}
	return nil
}

// key joins a prefix and id components. Components are hex-encoded so that no id can
// contain sep or end up as the prefix of another id's key.
func key(prefix string, parts ...string) string {
	encoded := make([]string, len(parts))
	for i, p := range parts {
		encoded[i] = hex.EncodeToString([]byte(p))
	}
	return prefix + strings.Join(encoded, sep)
}

// decodePart reverses the encoding key applies to a single component.
func decodePart(part string) (string, error) {
	raw, err := hex.DecodeString(part)
	if err != nil {
		return "", fmt.Errorf("decode key part %q: %w", part, err)
	}
	return string(raw), nil
}

// seqPart renders a sequence number so that byte order matches numeric order.
func seqPart(n uint64) string {
	return fmt.Sprintf("%020d", n)
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Trace().Msgf(strings.TrimSpace(format), args...)
}

// Ensure BadgerStore implements store.Store
var _ store.Store = (*BadgerStore)(nil)
