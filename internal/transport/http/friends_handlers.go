package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatbot-server/internal/metrics"
	"github.com/vovakirdan/chatbot-server/internal/service/friends"
)

// FriendsHandlers provides HTTP handlers for friend management endpoints.
type FriendsHandlers struct {
	service *friends.Service
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

// NewFriendsHandlers creates a new friends handlers instance.
func NewFriendsHandlers(svc *friends.Service, m *metrics.Metrics, logger *zerolog.Logger) *FriendsHandlers {
	return &FriendsHandlers{
		service: svc,
		metrics: m,
		log:     logger,
	}
}

// FriendRequestBody identifies a friend request by its direction.
type FriendRequestBody struct {
	SenderID   string `json:"senderId" binding:"required"`
	ReceiverID string `json:"receiverId" binding:"required"`
}

// RemoveFriendBody identifies an accepted friendship.
type RemoveFriendBody struct {
	UserID   string `json:"userId" binding:"required"`
	FriendID string `json:"friendId" binding:"required"`
}

// SendRequest handles sending a friend request.
// POST /friends/add
func (h *FriendsHandlers) SendRequest(c *gin.Context) {
	var req FriendRequestBody
	if !bindJSON(c, h.log, &req) {
		return
	}
	outcome, err := h.service.SendRequest(c.Request.Context(), req.SenderID, req.ReceiverID)
	h.respondOutcome(c, "send", outcome, err, req.SenderID, req.ReceiverID)
}

// AcceptRequest handles accepting a friend request.
// POST /friends/accept
func (h *FriendsHandlers) AcceptRequest(c *gin.Context) {
	var req FriendRequestBody
	if !bindJSON(c, h.log, &req) {
		return
	}
	outcome, err := h.service.AcceptRequest(c.Request.Context(), req.SenderID, req.ReceiverID)
	h.respondOutcome(c, "accept", outcome, err, req.SenderID, req.ReceiverID)
}

// RejectRequest handles rejecting a friend request.
// POST /friends/reject
func (h *FriendsHandlers) RejectRequest(c *gin.Context) {
	var req FriendRequestBody
	if !bindJSON(c, h.log, &req) {
		return
	}
	outcome, err := h.service.RejectRequest(c.Request.Context(), req.SenderID, req.ReceiverID)
	h.respondOutcome(c, "reject", outcome, err, req.SenderID, req.ReceiverID)
}

// RemoveFriend handles removing an accepted friend.
// POST /friends/remove
func (h *FriendsHandlers) RemoveFriend(c *gin.Context) {
	var req RemoveFriendBody
	if !bindJSON(c, h.log, &req) {
		return
	}
	outcome, err := h.service.RemoveFriend(c.Request.Context(), req.UserID, req.FriendID)
	h.respondOutcome(c, "remove", outcome, err, req.UserID, req.FriendID)
}

// ListFriends handles listing accepted friends as full users.
// GET /friends?userId=
func (h *FriendsHandlers) ListFriends(c *gin.Context) {
	userID, ok := requireQuery(c, "userId")
	if !ok {
		return
	}

	list, err := h.service.ListFriends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to list friends")
		return
	}
	if len(list) == 0 {
		c.String(http.StatusNotFound, "No friends found")
		return
	}

	c.JSON(http.StatusOK, usersToResponse(list))
}

// ListPending handles listing inbound pending requests.
// GET /friends/pending?userId=
func (h *FriendsHandlers) ListPending(c *gin.Context) {
	userID, ok := requireQuery(c, "userId")
	if !ok {
		return
	}

	exists, err := h.service.UserExists(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to check user")
		return
	}
	if !exists {
		c.String(http.StatusNotFound, "User not found")
		return
	}

	pending, err := h.service.ListPendingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to list pending requests")
		return
	}
	c.JSON(http.StatusOK, nonNil(pending))
}

// ListFriendNames handles listing friend names.
// GET /friends/friendsWithNames?userId=
func (h *FriendsHandlers) ListFriendNames(c *gin.Context) {
	userID, ok := requireQuery(c, "userId")
	if !ok {
		return
	}

	names, err := h.service.ListFriendNames(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to list friend names")
		return
	}
	c.JSON(http.StatusOK, nonNil(names))
}

// ListFriendIDs handles listing friend ids.
// GET /friends/friendsWithIds?userId=
func (h *FriendsHandlers) ListFriendIDs(c *gin.Context) {
	userID, ok := requireQuery(c, "userId")
	if !ok {
		return
	}

	ids, err := h.service.ListFriendIDs(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to list friend ids")
		return
	}
	c.JSON(http.StatusOK, nonNil(ids))
}

func (h *FriendsHandlers) respondOutcome(c *gin.Context, op string, outcome friends.Outcome, err error, from, to string) {
	if err != nil {
		respondError(c, h.log, err, "friend request "+op+" failed")
		return
	}
	h.metrics.FriendOutcome(op, string(outcome))
	h.log.Info().
		Str("op", op).
		Str("from_user_id", from).
		Str("to_user_id", to).
		Str("outcome", string(outcome)).
		Msg("friend request handled")
	c.String(http.StatusOK, string(outcome))
}
