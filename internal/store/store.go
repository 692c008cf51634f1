package store

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Store-level errors. Backends translate their native "no rows" / "key not found"
// and unique violations into these so services can match them with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// User represents a registered user.
// Friends and PendingFriendRequests are derived from friendship records when the
// user is loaded; they are never written through SaveUser.
type User struct {
	ID                    string
	Name                  string
	Email                 string
	PasswordHash          string
	Friends               []string
	PendingFriendRequests []string
	CreatedAt             time.Time
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// Friendship is the single relation record for an unordered pair of users.
// SenderID is the user who sent the request, ReceiverID the one who must accept it.
type Friendship struct {
	SenderID   string
	ReceiverID string
	Status     FriendStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Involves reports whether userID is one side of the friendship.
func (f *Friendship) Involves(userID string) bool {
	return f.SenderID == userID || f.ReceiverID == userID
}

// Other returns the id on the other side of the friendship from userID.
func (f *Friendship) Other(userID string) string {
	if f.SenderID == userID {
		return f.ReceiverID
	}
	return f.SenderID
}

// PairKey returns the order-independent key of the pair (a, b).
// The length of the smaller id leads the key, so ids containing ':' cannot collide.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return strconv.Itoa(len(a)) + ":" + a + ":" + b
}

// Message represents a persisted message, either direct or inside a group.
// Timestamp is caller-supplied and opaque; CreatedAt is assigned by the store.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Content    string
	Timestamp  string
	CreatedAt  time.Time
}

// Group represents a group chat with its members and message history.
type Group struct {
	ID        string
	Name      string
	Members   []string
	Messages  []*Message
	CreatedAt time.Time
}

// HasMember reports whether userID is a member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser persists a new user and assigns its ID and CreatedAt.
	// Returns ErrAlreadyExists if the email or name is taken.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID retrieves a user by ID, including derived friend lists.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByName retrieves a user by name.
	GetUserByName(ctx context.Context, name string) (*User, error)

	// ListUsers lists all users in creation order.
	ListUsers(ctx context.Context) ([]*User, error)

	// UserExists checks if a user with the given ID exists.
	UserExists(ctx context.Context, id string) (bool, error)
}

// FriendStore handles friendship persistence.
type FriendStore interface {
	// CreateFriendRequest creates a pending request from senderID to receiverID.
	// Returns ErrAlreadyExists if any friendship record exists for the pair.
	CreateFriendRequest(ctx context.Context, senderID, receiverID string) (*Friendship, error)

	// AcceptFriendRequest flips the pending request senderID -> receiverID to accepted.
	// Returns ErrNotFound if no such pending request exists.
	AcceptFriendRequest(ctx context.Context, senderID, receiverID string) error

	// GetFriendship retrieves the friendship between two users (in either direction).
	GetFriendship(ctx context.Context, userID, otherID string) (*Friendship, error)

	// ListFriendships lists friendships involving a user, optionally filtered by status,
	// oldest first.
	ListFriendships(ctx context.Context, userID string, status *FriendStatus) ([]*Friendship, error)

	// DeleteFriendship removes the record for the pair if its status matches.
	// Returns ErrNotFound if nothing was removed.
	DeleteFriendship(ctx context.Context, userID, otherID string, status FriendStatus) error
}

// MessageStore handles direct message persistence.
type MessageStore interface {
	// SaveMessage persists a message and assigns its ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessagesByReceiver lists messages addressed to receiverID.
	ListMessagesByReceiver(ctx context.Context, receiverID string) ([]*Message, error)

	// ListAllMessages lists every direct message.
	ListAllMessages(ctx context.Context) ([]*Message, error)

	// ListConversation lists messages exchanged between a and b in either direction.
	ListConversation(ctx context.Context, a, b string) ([]*Message, error)
}

// GroupStore handles group persistence.
type GroupStore interface {
	// CreateGroup persists a new group with its initial members.
	// Assigns ID and CreatedAt.
	CreateGroup(ctx context.Context, group *Group) error

	// GetGroup retrieves a group with members and messages.
	GetGroup(ctx context.Context, id string) (*Group, error)

	// AddGroupMember appends a member. Returns ErrAlreadyExists if already present
	// and ErrNotFound if the group does not exist.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// AppendGroupMessage appends a message to the group's history.
	AppendGroupMessage(ctx context.Context, groupID string, msg *Message) error

	// ListGroupsByMember lists groups the user belongs to.
	ListGroupsByMember(ctx context.Context, userID string) ([]*Group, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	FriendStore
	MessageStore
	GroupStore

	// Close closes the underlying database.
	Close() error
}
