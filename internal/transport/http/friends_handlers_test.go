package http

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatbot-server/internal/metrics"
	"github.com/vovakirdan/chatbot-server/internal/service/friends"
)

func TestFriendRequestFlow(t *testing.T) {
	router := newTestRouter(t, nil)
	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")

	send := func(from, to string) string {
		rec := doJSON(t, router, http.MethodPost, "/friends/add", FriendRequestBody{SenderID: from, ReceiverID: to})
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	require.Equal(t, string(friends.OutcomeSent), send(alice.ID, bob.ID))
	require.Equal(t, string(friends.OutcomeAlreadySent), send(alice.ID, bob.ID))
	require.Equal(t, string(friends.OutcomeAlreadyReceived), send(bob.ID, alice.ID))
	require.Equal(t, string(friends.OutcomeSelfRequest), send(alice.ID, alice.ID))
	require.Equal(t, string(friends.OutcomeUserNotFound), send(alice.ID, "ghost"))

	rec := doJSON(t, router, http.MethodGet, "/friends/pending?userId="+bob.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{alice.ID}, decode[[]string](t, rec))

	rec = doJSON(t, router, http.MethodGet, "/friends?userId="+alice.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "No friends found", rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/friends/accept", FriendRequestBody{SenderID: alice.ID, ReceiverID: bob.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(friends.OutcomeAccepted), rec.Body.String())

	require.Equal(t, string(friends.OutcomeAlreadyFriends), send(bob.ID, alice.ID))

	rec = doJSON(t, router, http.MethodGet, "/friends?userId="+alice.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]UserResponse](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, bob.ID, list[0].ID)

	rec = doJSON(t, router, http.MethodGet, "/friends/friendsWithNames?userId="+bob.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"alice"}, decode[[]string](t, rec))

	rec = doJSON(t, router, http.MethodGet, "/friends/friendsWithIds?userId="+bob.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{alice.ID}, decode[[]string](t, rec))

	rec = doJSON(t, router, http.MethodPost, "/friends/remove", RemoveFriendBody{UserID: bob.ID, FriendID: alice.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(friends.OutcomeRemoved), rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/friends/remove", RemoveFriendBody{UserID: bob.ID, FriendID: alice.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(friends.OutcomeFriendshipNotFound), rec.Body.String())
}

func TestRejectFriendRequest(t *testing.T) {
	router := newTestRouter(t, nil)
	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")

	doJSON(t, router, http.MethodPost, "/friends/add", FriendRequestBody{SenderID: alice.ID, ReceiverID: bob.ID})

	rec := doJSON(t, router, http.MethodPost, "/friends/reject", FriendRequestBody{SenderID: alice.ID, ReceiverID: bob.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(friends.OutcomeRejected), rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/friends/accept", FriendRequestBody{SenderID: alice.ID, ReceiverID: bob.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(friends.OutcomeRequestNotFound), rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/friends/pending?userId="+bob.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestFriendsValidation(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/friends/pending?userId=ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/friends", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "missing query parameter: userId", decode[ErrorResponse](t, rec).Error)

	rec = doJSON(t, router, http.MethodPost, "/friends/add", map[string]string{"senderId": "a"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFriendOutcomesAreCounted(t *testing.T) {
	m := metrics.New()
	router := newTestRouter(t, m)
	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")

	doJSON(t, router, http.MethodPost, "/friends/add", FriendRequestBody{SenderID: alice.ID, ReceiverID: bob.ID})
	doJSON(t, router, http.MethodPost, "/friends/add", FriendRequestBody{SenderID: alice.ID, ReceiverID: bob.ID})

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "chatbot_friends_outcomes_total")

	count, err := testutil.GatherAndCount(m.Registry(), "chatbot_friends_outcomes_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
