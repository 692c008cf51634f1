package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/vovakirdan/chatbot-server/internal/service/messages"
	"github.com/vovakirdan/chatbot-server/internal/store"
)

// Common errors for group operations.
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrInvalidGroup   = errors.New("invalid group")
	ErrMemberExists   = errors.New("member already exists in the group")
	ErrMemberNotFound = errors.New("member not found")
)

var validate = validator.New()

type createRequest struct {
	Name    string   `validate:"required"`
	Members []string `validate:"min=1,dive,required"`
}

// Service provides group membership and group message operations.
type Service struct {
	store           store.Store
	validateMembers bool
}

// Option configures a Service.
type Option func(*Service)

// WithMemberValidation makes Create and AddMember reject user ids that are not registered.
func WithMemberValidation(enabled bool) Option {
	return func(s *Service) {
		s.validateMembers = enabled
	}
}

// New creates a new groups Service.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create creates a group. Repeated member ids are collapsed, keeping first occurrence order.
func (s *Service) Create(ctx context.Context, name string, members []string) (*store.Group, error) {
	req := createRequest{
		Name:    strings.TrimSpace(name),
		Members: lo.Uniq(members),
	}
	if err := validate.Struct(req); err != nil {
		return nil, invalidGroup(err)
	}

	if err := s.checkMembers(ctx, req.Members...); err != nil {
		return nil, err
	}

	group := &store.Group{
		Name:     req.Name,
		Members:  req.Members,
		Messages: []*store.Message{},
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

// Get returns a group with members and messages.
func (s *Service) Get(ctx context.Context, groupID string) (*store.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

// AddMember adds memberID to the group and returns the updated group.
func (s *Service) AddMember(ctx context.Context, groupID, memberID string) (*store.Group, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id is required", ErrInvalidGroup)
	}
	if err := s.checkMembers(ctx, memberID); err != nil {
		return nil, err
	}

	if err := s.store.AddGroupMember(ctx, groupID, memberID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrGroupNotFound
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, ErrMemberExists
		}
		return nil, fmt.Errorf("add member: %w", err)
	}
	return s.Get(ctx, groupID)
}

// SendMessage appends a message to the group's history.
func (s *Service) SendMessage(ctx context.Context, groupID string, msg *store.Message) (*store.Message, error) {
	if err := messages.ValidateGroupMessage(msg); err != nil {
		return nil, err
	}

	if err := s.store.AppendGroupMessage(ctx, groupID, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("append group message: %w", err)
	}
	return msg, nil
}

// Messages returns the group's message history.
func (s *Service) Messages(ctx context.Context, groupID string) ([]*store.Message, error) {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return group.Messages, nil
}

// Members returns the group's member ids.
func (s *Service) Members(ctx context.Context, groupID string) ([]string, error) {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return group.Members, nil
}

// UserGroups returns the groups userID belongs to.
func (s *Service) UserGroups(ctx context.Context, userID string) ([]*store.Group, error) {
	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *Service) checkMembers(ctx context.Context, ids ...string) error {
	if !s.validateMembers {
		return nil
	}
	for _, id := range ids {
		ok, err := s.store.UserExists(ctx, id)
		if err != nil {
			return fmt.Errorf("check member: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, id)
		}
	}
	return nil
}

func invalidGroup(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.StructField() {
			case "Name":
				return fmt.Errorf("%w: group name cannot be empty", ErrInvalidGroup)
			case "Members":
				return fmt.Errorf("%w: a group must have at least one member", ErrInvalidGroup)
			}
			if strings.HasPrefix(fe.StructNamespace(), "createRequest.Members[") {
				return fmt.Errorf("%w: member ids cannot be empty", ErrInvalidGroup)
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidGroup, describe(err))
}

// describe flattens validator errors into "field tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return strings.ToLower(fe.Field()) + " is " + fe.Tag()
	})
	return strings.Join(parts, ", ")
}
