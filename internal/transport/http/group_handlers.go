package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatbot-server/internal/metrics"
	"github.com/vovakirdan/chatbot-server/internal/service/groups"
	"github.com/vovakirdan/chatbot-server/internal/store"
)

// GroupHandlers provides HTTP handlers for group endpoints.
type GroupHandlers struct {
	service *groups.Service
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

// NewGroupHandlers creates a new group handlers instance.
func NewGroupHandlers(svc *groups.Service, m *metrics.Metrics, logger *zerolog.Logger) *GroupHandlers {
	return &GroupHandlers{
		service: svc,
		metrics: m,
		log:     logger,
	}
}

// CreateGroupRequest represents the request body for creating a group.
type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// AddMemberRequest represents the request body for adding a member.
type AddMemberRequest struct {
	GroupID  string `json:"groupId" binding:"required"`
	MemberID string `json:"memberId"`
}

// GroupMessageRequest represents the request body for posting to a group.
type GroupMessageRequest struct {
	GroupID    string `json:"groupId" binding:"required"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
}

// GroupIDRequest carries only a group id.
type GroupIDRequest struct {
	GroupID string `json:"groupId" binding:"required"`
}

// Create handles group creation.
// POST /groups/create
func (h *GroupHandlers) Create(c *gin.Context) {
	var req CreateGroupRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	group, err := h.service.Create(c.Request.Context(), req.Name, req.Members)
	if err != nil {
		respondError(c, h.log, err, "failed to create group")
		return
	}

	h.log.Info().Str("group_id", group.ID).Int("members", len(group.Members)).Msg("group created")
	c.JSON(http.StatusOK, groupToResponse(group))
}

// AddMember handles adding a member to a group.
// POST /groups/add-member
func (h *GroupHandlers) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	group, err := h.service.AddMember(c.Request.Context(), req.GroupID, req.MemberID)
	if err != nil {
		respondError(c, h.log, err, "failed to add group member")
		return
	}

	h.log.Info().Str("group_id", group.ID).Str("member_id", req.MemberID).Msg("group member added")
	c.JSON(http.StatusOK, groupToResponse(group))
}

// SendMessage handles posting a message to a group.
// POST /groups/send-message
func (h *GroupHandlers) SendMessage(c *gin.Context) {
	var req GroupMessageRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), req.GroupID, &store.Message{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Timestamp:  req.Timestamp,
	})
	if err != nil {
		respondError(c, h.log, err, "failed to send group message")
		return
	}

	h.metrics.MessageSent("group")
	h.log.Debug().Str("group_id", req.GroupID).Str("message_id", msg.ID).Msg("group message sent")
	c.JSON(http.StatusOK, messageToResponse(msg))
}

// Messages handles reading a group's history.
// POST /groups/messages
func (h *GroupHandlers) Messages(c *gin.Context) {
	var req GroupIDRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	msgs, err := h.service.Messages(c.Request.Context(), req.GroupID)
	if err != nil {
		respondError(c, h.log, err, "failed to load group messages")
		return
	}
	c.JSON(http.StatusOK, messagesToResponse(msgs))
}

// Members handles listing a group's members.
// POST /groups/members
func (h *GroupHandlers) Members(c *gin.Context) {
	var req GroupIDRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	members, err := h.service.Members(c.Request.Context(), req.GroupID)
	if err != nil {
		respondError(c, h.log, err, "failed to load group members")
		return
	}
	c.JSON(http.StatusOK, nonNil(members))
}

// UserGroups handles listing the groups a user belongs to.
// GET /groups/user/:userId
func (h *GroupHandlers) UserGroups(c *gin.Context) {
	list, err := h.service.UserGroups(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.log, err, "failed to list user groups")
		return
	}
	c.JSON(http.StatusOK, groupsToResponse(list))
}
