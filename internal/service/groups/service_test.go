package groups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatbot-server/internal/service/messages"
	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/store/sqlite"
)

func newTestService(t *testing.T, opts ...Option) (*Service, store.Store) {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, opts...), st
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		group   string
		members []string
		msg     string
	}{
		{"empty name", "", []string{"u1"}, "group name cannot be empty"},
		{"blank name", "   ", []string{"u1"}, "group name cannot be empty"},
		{"no members", "G", []string{}, "a group must have at least one member"},
		{"nil members", "G", nil, "a group must have at least one member"},
		{"empty member id", "G", []string{"u1", ""}, "member ids cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.group, tt.members)
			require.ErrorIs(t, err, ErrInvalidGroup)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "G", []string{"u1", "u2", "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, group.ID)
	require.False(t, group.CreatedAt.IsZero())
	require.Equal(t, []string{"u1", "u2"}, group.Members)

	got, err := svc.Get(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, "G", got.Name)
	require.Equal(t, []string{"u1", "u2"}, got.Members)
}

func TestAddMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "G", []string{"u1"})
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, group.ID, "u1")
	require.ErrorIs(t, err, ErrMemberExists)

	updated, err := svc.AddMember(ctx, group.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, updated.Members)

	_, err = svc.AddMember(ctx, group.ID, "u2")
	require.ErrorIs(t, err, ErrMemberExists)

	members, err := svc.Members(ctx, group.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, members)

	_, err = svc.AddMember(ctx, "missing", "u2")
	require.ErrorIs(t, err, ErrGroupNotFound)

	_, err = svc.AddMember(ctx, group.ID, " ")
	require.ErrorIs(t, err, ErrInvalidGroup)
}

func TestMemberValidation(t *testing.T) {
	svc, st := newTestService(t, WithMemberValidation(true))
	ctx := context.Background()

	alice := &store.User{Name: "alice", Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, st.CreateUser(ctx, alice))

	_, err := svc.Create(ctx, "G", []string{alice.ID, "ghost"})
	require.ErrorIs(t, err, ErrMemberNotFound)

	group, err := svc.Create(ctx, "G", []string{alice.ID})
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, group.ID, "ghost")
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestSendMessage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "G", []string{"u1", "u2"})
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, group.ID, &store.Message{SenderID: "u1", Content: "hello", Timestamp: "t1"})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)

	_, err = svc.SendMessage(ctx, group.ID, &store.Message{SenderID: "u2", Content: "hi", Timestamp: "t2"})
	require.NoError(t, err)

	history, err := svc.Messages(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "hello", history[0].Content)
	require.Equal(t, "hi", history[1].Content)

	_, err = svc.SendMessage(ctx, "missing", &store.Message{SenderID: "u1", Content: "x"})
	require.ErrorIs(t, err, ErrGroupNotFound)

	_, err = svc.SendMessage(ctx, group.ID, &store.Message{SenderID: "u1", Content: ""})
	require.ErrorIs(t, err, messages.ErrInvalidMessage)

	_, err = svc.Messages(ctx, "missing")
	require.ErrorIs(t, err, ErrGroupNotFound)
	_, err = svc.Members(ctx, "missing")
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestUserGroups(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	g1, err := svc.Create(ctx, "one", []string{"u1", "u2"})
	require.NoError(t, err)
	g2, err := svc.Create(ctx, "two", []string{"u2"})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, g2.ID, "u1")
	require.NoError(t, err)

	groups, err := svc.UserGroups(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, g1.ID, groups[0].ID)
	require.Equal(t, g2.ID, groups[1].ID)

	groups, err = svc.UserGroups(ctx, "u3")
	require.NoError(t, err)
	require.Empty(t, groups)
}
