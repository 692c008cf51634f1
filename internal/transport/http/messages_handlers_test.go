package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectMessages(t *testing.T) {
	router := newTestRouter(t, nil)

	send := func(from, to, content string) MessageResponse {
		rec := doJSON(t, router, http.MethodPost, "/messages/send", SendMessageRequest{
			SenderID:   from,
			ReceiverID: to,
			Content:    content,
			Timestamp:  "2024-01-01T10:00:00Z",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[MessageResponse](t, rec)
	}

	first := send("u1", "u2", "hi")
	require.NotEmpty(t, first.ID)
	require.Equal(t, "2024-01-01T10:00:00Z", first.Timestamp)
	send("u2", "u1", "hello")
	send("u1", "u3", "psst")

	rec := doJSON(t, router, http.MethodGet, "/messages/receiver?receiverId=u2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[[]MessageResponse](t, rec)
	require.Len(t, inbox, 1)
	require.Equal(t, "hi", inbox[0].Content)

	rec = doJSON(t, router, http.MethodGet, "/messages/conversation?senderId=u2&receiverId=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	conv := decode[[]MessageResponse](t, rec)
	require.Len(t, conv, 2)
	require.Equal(t, "hi", conv[0].Content)
	require.Equal(t, "hello", conv[1].Content)

	rec = doJSON(t, router, http.MethodGet, "/messages/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]MessageResponse](t, rec), 3)

	rec = doJSON(t, router, http.MethodGet, "/messages/receiver?receiverId=nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestDirectMessageValidation(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/messages/send", SendMessageRequest{SenderID: "u1", ReceiverID: "u2", Content: "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/messages/conversation?senderId=u1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "missing query parameter: receiverId", decode[ErrorResponse](t, rec).Error)

	rec = doJSON(t, router, http.MethodGet, "/messages/receiver", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
