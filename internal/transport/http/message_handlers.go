package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatbot-server/internal/metrics"
	"github.com/vovakirdan/chatbot-server/internal/service/messages"
	"github.com/vovakirdan/chatbot-server/internal/store"
)

// MessageHandlers provides HTTP handlers for direct messages.
type MessageHandlers struct {
	service *messages.Service
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(svc *messages.Service, m *metrics.Metrics, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		service: svc,
		metrics: m,
		log:     logger,
	}
}

// SendMessageRequest represents the request body for a direct message.
type SendMessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
}

// Send handles sending a direct message.
// POST /messages/send
func (h *MessageHandlers) Send(c *gin.Context) {
	var req SendMessageRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	msg, err := h.service.Send(c.Request.Context(), &store.Message{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Timestamp:  req.Timestamp,
	})
	if err != nil {
		respondError(c, h.log, err, "failed to send message")
		return
	}

	h.metrics.MessageSent("direct")
	h.log.Debug().Str("message_id", msg.ID).Str("sender_id", msg.SenderID).Str("receiver_id", msg.ReceiverID).Msg("message sent")
	c.JSON(http.StatusOK, messageToResponse(msg))
}

// ByReceiver handles listing messages addressed to a user.
// GET /messages/receiver?receiverId=
func (h *MessageHandlers) ByReceiver(c *gin.Context) {
	receiverID, ok := requireQuery(c, "receiverId")
	if !ok {
		return
	}

	msgs, err := h.service.ListByReceiver(c.Request.Context(), receiverID)
	if err != nil {
		respondError(c, h.log, err, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, messagesToResponse(msgs))
}

// All handles listing every direct message.
// GET /messages/all
func (h *MessageHandlers) All(c *gin.Context) {
	msgs, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, messagesToResponse(msgs))
}

// Conversation handles listing messages between two users.
// GET /messages/conversation?senderId=&receiverId=
func (h *MessageHandlers) Conversation(c *gin.Context) {
	senderID, ok := requireQuery(c, "senderId")
	if !ok {
		return
	}
	receiverID, ok := requireQuery(c, "receiverId")
	if !ok {
		return
	}

	msgs, err := h.service.Conversation(c.Request.Context(), senderID, receiverID)
	if err != nil {
		respondError(c, h.log, err, "failed to load conversation")
		return
	}
	c.JSON(http.StatusOK, messagesToResponse(msgs))
}
