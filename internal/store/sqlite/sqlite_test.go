package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(":memory:")
		require.NoError(t, err)
		return s
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "chat.db")

	s, err := New(dbPath)
	require.NoError(t, err)

	user := &store.User{Name: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.Close())

	// Schema application is idempotent and data survives.
	s, err = New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestNewWithSetupSeedsRows(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?), (?, ?, ?, ?, ?)`,
			"u1", "alice", "alice@example.com", "h", now,
			"u2", "bob", "bob@example.com", "h", now,
		)
		if err != nil {
			return err
		}
		_, err = db.Exec(
			`INSERT INTO friendships (pair_key, sender_id, receiver_id, status, created_at, updated_at) VALUES (?, ?, ?, 'accepted', ?, ?)`,
			store.PairKey("u2", "u1"), "u2", "u1", now, now,
		)
		return err
	})
	require.NoError(t, err)
	defer s.Close()

	alice, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"u2"}, alice.Friends)
}

func TestNewWithSetupError(t *testing.T) {
	_, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestAcceptFriendRequestRowsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewFromDB(db)
	ctx := context.Background()
	update := regexp.QuoteMeta(`UPDATE friendships`)

	mock.ExpectExec(update).
		WithArgs(sqlmock.AnyArg(), store.PairKey("a", "b"), "a", "b").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.AcceptFriendRequest(ctx, "a", "b")
	require.ErrorIs(t, err, store.ErrNotFound)

	mock.ExpectExec(update).
		WithArgs(sqlmock.AnyArg(), store.PairKey("a", "b"), "a", "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.AcceptFriendRequest(ctx, "a", "b"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddGroupMemberRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewFromDB(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM chat_groups WHERE id = ?)`)).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO group_members`)).
		WithArgs("g1", "u1", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = s.AddGroupMember(context.Background(), "g1", "u1")
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByIDQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewFromDB(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`)).
		WithArgs("u1").
		WillReturnError(sql.ErrConnDone)

	_, err = s.GetUserByID(context.Background(), "u1")
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NotErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
