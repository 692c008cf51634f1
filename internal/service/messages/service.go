package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/chatbot-server/internal/store"
)

// ErrInvalidMessage is returned when a message lacks a sender, receiver or content.
var ErrInvalidMessage = errors.New("invalid message")

// Service provides direct message operations.
type Service struct {
	store store.MessageStore
}

// New creates a new messages Service.
func New(st store.MessageStore) *Service {
	return &Service{store: st}
}

// Send persists a direct message. Sender and receiver are not checked against the
// user store.
func (s *Service) Send(ctx context.Context, msg *store.Message) (*store.Message, error) {
	if err := Validate(msg); err != nil {
		return nil, err
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

// ListByReceiver returns messages addressed to receiverID.
func (s *Service) ListByReceiver(ctx context.Context, receiverID string) ([]*store.Message, error) {
	msgs, err := s.store.ListMessagesByReceiver(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// ListAll returns every direct message.
func (s *Service) ListAll(ctx context.Context) ([]*store.Message, error) {
	msgs, err := s.store.ListAllMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Conversation returns messages exchanged between a and b in storage order.
func (s *Service) Conversation(ctx context.Context, a, b string) ([]*store.Message, error) {
	msgs, err := s.store.ListConversation(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return msgs, nil
}

var validate = validator.New()

// messageRequest holds the trimmed fields a message is validated on. Direct messages
// also need a receiver; group messages may leave it empty.
type messageRequest struct {
	SenderID   string `validate:"required"`
	ReceiverID string `validate:"required_if=Direct true"`
	Content    string `validate:"required"`
	Direct     bool
}

// Validate checks the fields every direct message needs.
func Validate(msg *store.Message) error {
	return validateMessage(msg, true)
}

// ValidateGroupMessage checks the fields a message posted to a group needs.
func ValidateGroupMessage(msg *store.Message) error {
	return validateMessage(msg, false)
}

func validateMessage(msg *store.Message, direct bool) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	req := messageRequest{
		SenderID:   strings.TrimSpace(msg.SenderID),
		ReceiverID: strings.TrimSpace(msg.ReceiverID),
		Content:    strings.TrimSpace(msg.Content),
		Direct:     direct,
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	field := strings.TrimSuffix(strings.ToLower(verrs[0].Field()), "id")
	return fmt.Errorf("%w: %s is required", ErrInvalidMessage, field)
}
