// Package storetest holds a behavioural suite shared by every store.Store backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatbot-server/internal/store"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes the full suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Users", testUsers},
		{"UserUniqueness", testUserUniqueness},
		{"FriendRequestLifecycle", testFriendRequestLifecycle},
		{"FriendRequestPairIsUnique", testFriendRequestPairIsUnique},
		{"ConcurrentFriendRequests", testConcurrentFriendRequests},
		{"DeleteFriendship", testDeleteFriendship},
		{"Messages", testMessages},
		{"Groups", testGroups},
		{"GroupMissing", testGroupMissing},
		{"IDsWithSeparators", testIDsWithSeparators},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func createUser(t *testing.T, s store.Store, name string) *store.User {
	t.Helper()
	user := &store.User{Name: name, Email: name + "@example.com", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), user))
	require.NotEmpty(t, user.ID)
	return user
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	got, err := s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Name)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "hash", got.PasswordHash)
	require.Empty(t, got.Friends)
	require.Empty(t, got.PendingFriendRequests)

	got, err = s.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, bob.ID, got.ID)

	got, err = s.GetUserByName(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, bob.ID, got.ID)

	_, err = s.GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	exists, err := s.UserExists(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, exists)
	exists, err = s.UserExists(ctx, "missing")
	require.NoError(t, err)
	require.False(t, exists)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, alice.ID, users[0].ID)
	require.Equal(t, bob.ID, users[1].ID)
}

func testUserUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()
	createUser(t, s, "alice")

	err := s.CreateUser(ctx, &store.User{Name: "other", Email: "alice@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.CreateUser(ctx, &store.User{Name: "alice", Email: "other@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func testFriendRequestLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	f, err := s.CreateFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, store.FriendStatusPending, f.Status)

	got, err := s.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, []string{alice.ID}, got.PendingFriendRequests)
	require.Empty(t, got.Friends)

	// The sender does not see its own outgoing request as pending.
	got, err = s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, got.PendingFriendRequests)

	// Only the receiver side can accept.
	err = s.AcceptFriendRequest(ctx, bob.ID, alice.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.AcceptFriendRequest(ctx, alice.ID, bob.ID))

	// Accepting twice fails: the request is no longer pending.
	err = s.AcceptFriendRequest(ctx, alice.ID, bob.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		got, err := s.GetUserByID(ctx, pair[0])
		require.NoError(t, err)
		require.Equal(t, []string{pair[1]}, got.Friends)
		require.Empty(t, got.PendingFriendRequests)
	}

	friendship, err := s.GetFriendship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, friendship.SenderID)
	require.Equal(t, bob.ID, friendship.ReceiverID)
	require.Equal(t, store.FriendStatusAccepted, friendship.Status)

	accepted := store.FriendStatusAccepted
	list, err := s.ListFriendships(ctx, alice.ID, &accepted)
	require.NoError(t, err)
	require.Len(t, list, 1)

	pending := store.FriendStatusPending
	list, err = s.ListFriendships(ctx, alice.ID, &pending)
	require.NoError(t, err)
	require.Empty(t, list)
}

func testFriendRequestPairIsUnique(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	_, err := s.CreateFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = s.CreateFriendRequest(ctx, alice.ID, bob.ID)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.CreateFriendRequest(ctx, bob.ID, alice.ID)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, []string{alice.ID}, got.PendingFriendRequests)
}

func testConcurrentFriendRequests(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender, receiver := alice.ID, bob.ID
			if i%2 == 1 {
				sender, receiver = receiver, sender
			}
			_, err := s.CreateFriendRequest(ctx, sender, receiver)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, store.ErrAlreadyExists) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, succeeded)

	friendships, err := s.ListFriendships(ctx, alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, friendships, 1)
}

func testDeleteFriendship(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	_, err := s.CreateFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	err = s.DeleteFriendship(ctx, alice.ID, bob.ID, store.FriendStatusAccepted)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteFriendship(ctx, bob.ID, alice.ID, store.FriendStatusPending))

	_, err = s.GetFriendship(ctx, alice.ID, bob.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// The pair can start over once the record is gone.
	_, err = s.CreateFriendRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
}

func testMessages(t *testing.T, s store.Store) {
	ctx := context.Background()

	all, err := s.ListAllMessages(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	for i, m := range []struct{ from, to string }{
		{"a", "b"}, {"b", "a"}, {"c", "b"}, {"a", "b"},
	} {
		msg := &store.Message{SenderID: m.from, ReceiverID: m.to, Content: fmt.Sprintf("m%d", i), Timestamp: "t"}
		require.NoError(t, s.SaveMessage(ctx, msg))
		require.NotEmpty(t, msg.ID)
	}

	toB, err := s.ListMessagesByReceiver(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, []string{"m0", "m2", "m3"}, contents(toB))

	conv, err := s.ListConversation(ctx, "b", "a")
	require.NoError(t, err)
	require.Equal(t, []string{"m0", "m1", "m3"}, contents(conv))

	all, err = s.ListAllMessages(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"m0", "m1", "m2", "m3"}, contents(all))

	none, err := s.ListMessagesByReceiver(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}

func testGroups(t *testing.T, s store.Store) {
	ctx := context.Background()

	group := &store.Group{Name: "team", Members: []string{"u1", "u2", "u1"}}
	require.NoError(t, s.CreateGroup(ctx, group))
	require.NotEmpty(t, group.ID)

	got, err := s.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, "team", got.Name)
	require.Equal(t, []string{"u1", "u2"}, got.Members)
	require.Empty(t, got.Messages)

	require.NoError(t, s.AddGroupMember(ctx, group.ID, "u3"))
	err = s.AddGroupMember(ctx, group.ID, "u2")
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	for _, content := range []string{"hello", "world"} {
		msg := &store.Message{SenderID: "u1", Content: content}
		require.NoError(t, s.AppendGroupMessage(ctx, group.ID, msg))
	}

	got, err = s.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2", "u3"}, got.Members)
	require.Equal(t, []string{"hello", "world"}, contents(got.Messages))

	other := &store.Group{Name: "other", Members: []string{"u3"}}
	require.NoError(t, s.CreateGroup(ctx, other))

	groups, err := s.ListGroupsByMember(ctx, "u3")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, group.ID, groups[0].ID)
	require.Equal(t, other.ID, groups[1].ID)

	groups, err = s.ListGroupsByMember(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 1)

	groups, err = s.ListGroupsByMember(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, groups)
}

func testGroupMissing(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetGroup(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.AddGroupMember(ctx, "missing", "u1")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.AppendGroupMessage(ctx, "missing", &store.Message{SenderID: "u1", Content: "x"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

// testIDsWithSeparators checks that ids are compared whole, even when one id is another
// id plus a separator-like suffix.
func testIDsWithSeparators(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, msg := range []*store.Message{
		{SenderID: "u1:u2", ReceiverID: "u3", Content: "colon sender"},
		{SenderID: "u1", ReceiverID: "bob\x00zz", Content: "nul receiver"},
		{SenderID: "u1", ReceiverID: "u2:u3", Content: "colon receiver"},
	} {
		require.NoError(t, s.SaveMessage(ctx, msg))
	}

	conv, err := s.ListConversation(ctx, "u1", "u2:u3")
	require.NoError(t, err)
	require.Equal(t, []string{"colon receiver"}, contents(conv))

	conv, err = s.ListConversation(ctx, "u1:u2", "u3")
	require.NoError(t, err)
	require.Equal(t, []string{"colon sender"}, contents(conv))

	inbox, err := s.ListMessagesByReceiver(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, inbox)

	inbox, err = s.ListMessagesByReceiver(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, inbox)

	// ("a:b", "c") and ("a", "b:c") are different pairs.
	_, err = s.CreateFriendRequest(ctx, "a:b", "c")
	require.NoError(t, err)
	_, err = s.CreateFriendRequest(ctx, "a", "b:c")
	require.NoError(t, err)

	friendships, err := s.ListFriendships(ctx, "a", nil)
	require.NoError(t, err)
	require.Len(t, friendships, 1)
	require.Equal(t, "b:c", friendships[0].ReceiverID)

	_, err = s.GetFriendship(ctx, "a:b", "c")
	require.NoError(t, err)

	carols := &store.Group{Name: "carols", Members: []string{"carol\x00x"}}
	require.NoError(t, s.CreateGroup(ctx, carols))
	plain := &store.Group{Name: "plain", Members: []string{"carol"}}
	require.NoError(t, s.CreateGroup(ctx, plain))

	groups, err := s.ListGroupsByMember(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, plain.ID, groups[0].ID)
}

func contents(messages []*store.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}
