package badger

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/store/storetest"
)

func TestBadgerStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(":memory:", zerolog.Nop())
		require.NoError(t, err)
		return s
	})
}

func TestBadgerStoreReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir, zerolog.Nop())
	require.NoError(t, err)

	alice := &store.User{Name: "alice", Email: "alice@example.com", PasswordHash: "h"}
	bob := &store.User{Name: "bob", Email: "bob@example.com", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))
	require.NoError(t, s.SaveMessage(ctx, &store.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "first"}))
	require.NoError(t, s.Close())

	s, err = New(dir, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	// Sequence values keep growing across restarts, so new rows sort after old ones.
	require.NoError(t, s.SaveMessage(ctx, &store.Message{SenderID: bob.ID, ReceiverID: alice.ID, Content: "second"}))

	conv, err := s.ListConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	require.Equal(t, "first", conv[0].Content)
	require.Equal(t, "second", conv[1].Content)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "alice", users[0].Name)
}

func TestBadgerReceiverIndexIsExact(t *testing.T) {
	ctx := context.Background()
	s, err := New(":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	// A receiver id that is a prefix of another must not pick up its messages.
	require.NoError(t, s.SaveMessage(ctx, &store.Message{SenderID: "x", ReceiverID: "bob", Content: "to bob"}))
	require.NoError(t, s.SaveMessage(ctx, &store.Message{SenderID: "x", ReceiverID: "bobby", Content: "to bobby"}))

	msgs, err := s.ListMessagesByReceiver(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "to bob", msgs[0].Content)
}

func TestBadgerCanceledContext(t *testing.T) {
	s, err := New(":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.CreateUser(ctx, &store.User{Name: "alice", Email: "alice@example.com"})
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.GetUserByID(ctx, "any")
	require.ErrorIs(t, err, context.Canceled)
}

func TestKeyComponentsDoNotPrefixEachOther(t *testing.T) {
	short := key(prefixMessageTo, "bob") + sep
	long := key(prefixMessageTo, "bob\x00zz", seqPart(1))
	require.False(t, strings.HasPrefix(long, short))

	pair, err := decodePart(strings.TrimPrefix(key(prefixFriendshipByUser, "u1", "1:a:b"), key(prefixFriendshipByUser, "u1")+sep))
	require.NoError(t, err)
	require.Equal(t, "1:a:b", pair)
}
