package http

import (
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/chatbot-server/internal/store"
)

// UserResponse represents a user in API responses. The password hash is never exposed.
type UserResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Friends               []string  `json:"friends"`
	PendingFriendRequests []string  `json:"pendingFriendRequests"`
	CreatedAt             time.Time `json:"createdAt"`
}

// MessageResponse represents a direct or group message in API responses.
type MessageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Members   []string          `json:"members"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"createdAt"`
}

func userToResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:                    u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		Friends:               nonNil(u.Friends),
		PendingFriendRequests: nonNil(u.PendingFriendRequests),
		CreatedAt:             u.CreatedAt,
	}
}

func usersToResponse(users []*store.User) []UserResponse {
	return lo.Map(users, func(u *store.User, _ int) UserResponse { return userToResponse(u) })
}

func messageToResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
	}
}

func messagesToResponse(msgs []*store.Message) []MessageResponse {
	return lo.Map(msgs, func(m *store.Message, _ int) MessageResponse { return messageToResponse(m) })
}

func groupToResponse(g *store.Group) GroupResponse {
	return GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Members:   nonNil(g.Members),
		Messages:  messagesToResponse(g.Messages),
		CreatedAt: g.CreatedAt,
	}
}

func groupsToResponse(groups []*store.Group) []GroupResponse {
	return lo.Map(groups, func(g *store.Group, _ int) GroupResponse { return groupToResponse(g) })
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
