package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/vovakirdan/chatbot-server/internal/store"
)

// Outcome is the human-readable result of a friend request operation.
// Outcomes are not errors: they are returned to the caller as-is with a 200.
type Outcome string

const (
	OutcomeUserNotFound       Outcome = "Sender or Receiver not found"
	OutcomeSelfRequest        Outcome = "Cannot send friend request to yourself"
	OutcomeAlreadySent        Outcome = "Friend request already sent"
	OutcomeAlreadyReceived    Outcome = "Friend request already received"
	OutcomeAlreadyFriends     Outcome = "Already friends"
	OutcomeSent               Outcome = "Friend request sent successfully"
	OutcomeRequestNotFound    Outcome = "Friend request not found"
	OutcomeAccepted           Outcome = "Friend request accepted"
	OutcomeRejected           Outcome = "Friend request rejected"
	OutcomeRemoved            Outcome = "Friend removed"
	OutcomeFriendshipNotFound Outcome = "Friendship not found"
)

// Service provides friend management business logic.
type Service struct {
	store store.Store
}

// New creates a new friends Service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// SendRequest sends a friend request from senderID to receiverID.
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID string) (Outcome, error) {
	ok, err := s.bothExist(ctx, senderID, receiverID)
	if err != nil {
		return "", err
	}
	if !ok {
		return OutcomeUserNotFound, nil
	}

	// Cannot friend yourself
	if senderID == receiverID {
		return OutcomeSelfRequest, nil
	}

	existing, err := s.store.GetFriendship(ctx, senderID, receiverID)
	switch {
	case err == nil:
		return existingOutcome(existing, senderID), nil
	case !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("get friendship: %w", err)
	}

	if _, err := s.store.CreateFriendRequest(ctx, senderID, receiverID); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			return "", fmt.Errorf("create friend request: %w", err)
		}
		// Lost a race with a concurrent request for the same pair.
		existing, err := s.store.GetFriendship(ctx, senderID, receiverID)
		if err != nil {
			return "", fmt.Errorf("get friendship: %w", err)
		}
		return existingOutcome(existing, senderID), nil
	}

	return OutcomeSent, nil
}

// AcceptRequest accepts the pending request sent by senderID to receiverID.
func (s *Service) AcceptRequest(ctx context.Context, senderID, receiverID string) (Outcome, error) {
	ok, err := s.bothExist(ctx, senderID, receiverID)
	if err != nil {
		return "", err
	}
	if !ok {
		return OutcomeUserNotFound, nil
	}

	if err := s.store.AcceptFriendRequest(ctx, senderID, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return OutcomeRequestNotFound, nil
		}
		return "", fmt.Errorf("accept request: %w", err)
	}

	return OutcomeAccepted, nil
}

// RejectRequest rejects the pending request sent by senderID to receiverID.
func (s *Service) RejectRequest(ctx context.Context, senderID, receiverID string) (Outcome, error) {
	ok, err := s.bothExist(ctx, senderID, receiverID)
	if err != nil {
		return "", err
	}
	if !ok {
		return OutcomeUserNotFound, nil
	}

	// Get the friendship - must be a pending request from senderID to receiverID
	existing, err := s.store.GetFriendship(ctx, senderID, receiverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return OutcomeRequestNotFound, nil
		}
		return "", fmt.Errorf("get friendship: %w", err)
	}
	if existing.Status != store.FriendStatusPending || existing.SenderID != senderID {
		return OutcomeRequestNotFound, nil
	}

	if err := s.store.DeleteFriendship(ctx, senderID, receiverID, store.FriendStatusPending); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return OutcomeRequestNotFound, nil
		}
		return "", fmt.Errorf("reject request: %w", err)
	}

	return OutcomeRejected, nil
}

// RemoveFriend ends an accepted friendship between userID and friendID.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) (Outcome, error) {
	if err := s.store.DeleteFriendship(ctx, userID, friendID, store.FriendStatusAccepted); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return OutcomeFriendshipNotFound, nil
		}
		return "", fmt.Errorf("remove friend: %w", err)
	}
	return OutcomeRemoved, nil
}

// ListFriends resolves the user's friends. Friend ids that no longer resolve are skipped
// and an unknown user has no friends.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]*store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []*store.User{}, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	friends := make([]*store.User, 0, len(user.Friends))
	for _, friendID := range user.Friends {
		friend, err := s.store.GetUserByID(ctx, friendID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get friend: %w", err)
		}
		friends = append(friends, friend)
	}
	return friends, nil
}

// ListFriendNames returns the names of the user's friends.
func (s *Service) ListFriendNames(ctx context.Context, userID string) ([]string, error) {
	friends, err := s.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(friends, func(u *store.User, _ int) string { return u.Name }), nil
}

// ListFriendIDs returns the ids of the user's friends.
func (s *Service) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	friends, err := s.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(friends, func(u *store.User, _ int) string { return u.ID }), nil
}

// ListPendingRequests returns the ids of users waiting for userID to accept.
func (s *Service) ListPendingRequests(ctx context.Context, userID string) ([]string, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user.PendingFriendRequests, nil
}

// UserExists reports whether userID is a registered user.
func (s *Service) UserExists(ctx context.Context, userID string) (bool, error) {
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return ok, nil
}

func (s *Service) bothExist(ctx context.Context, a, b string) (bool, error) {
	for _, id := range []string{a, b} {
		ok, err := s.store.UserExists(ctx, id)
		if err != nil {
			return false, fmt.Errorf("check user: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// existingOutcome classifies a SendRequest that hit an existing record for the pair.
func existingOutcome(f *store.Friendship, senderID string) Outcome {
	switch {
	case f.Status == store.FriendStatusAccepted:
		return OutcomeAlreadyFriends
	case f.SenderID == senderID:
		return OutcomeAlreadySent
	default:
		return OutcomeAlreadyReceived
	}
}
