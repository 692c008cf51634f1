package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/chatbot-server/internal/auth"
	"github.com/vovakirdan/chatbot-server/internal/store"
)

var (
	// ErrInvalidUser is returned when registration input fails validation.
	ErrInvalidUser = errors.New("invalid user")
	// ErrEmailTaken is returned when the e-mail is already registered.
	ErrEmailTaken = errors.New("e-mail is currently used by another user")
	// ErrNameTaken is returned when the username is already registered.
	ErrNameTaken = errors.New("username is currently used by another user")
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when a lookup finds no user.
	ErrUserNotFound = errors.New("user not found")
)

var validate = validator.New()

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Service provides registration, login and user lookups.
type Service struct {
	store  store.UserStore
	hasher *auth.Hasher
}

// New creates a new users Service.
func New(userStore store.UserStore, hasher *auth.Hasher) *Service {
	return &Service{
		store:  userStore,
		hasher: hasher,
	}
}

// Register validates the request, hashes the password and creates the user.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*store.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, invalidUser(err)
	}

	if err := s.checkAvailable(ctx, req.Name, req.Email); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidUser, err)
		}
		return nil, err
	}

	user := &store.User{
		Name:                  req.Name,
		Email:                 req.Email,
		PasswordHash:          hashedPassword,
		Friends:               []string{},
		PendingFriendRequests: []string{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A concurrent registration took the email or name after our check.
			if err := s.checkAvailable(ctx, req.Name, req.Email); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, req.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login validates credentials and returns the user.
func (s *Service) Login(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

// ListAll returns every registered user.
func (s *Service) ListAll(ctx context.Context) ([]*store.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*store.User{}
	}
	return users, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*store.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// NameByID returns the name of the user with the given id.
func (s *Service) NameByID(ctx context.Context, id string) (string, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

// IDByName returns the id of the user with the given name.
func (s *Service) IDByName(ctx context.Context, name string) (string, error) {
	user, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	return user.ID, nil
}

func (s *Service) checkAvailable(ctx context.Context, name, email string) error {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: %s", ErrEmailTaken, email)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	if _, err := s.store.GetUserByName(ctx, name); err == nil {
		return fmt.Errorf("%w: %s", ErrNameTaken, name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check name: %w", err)
	}
	return nil
}

func invalidUser(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Email" && fe.Tag() == "email":
		return fmt.Errorf("%w: email is not well-formed", ErrInvalidUser)
	default:
		return fmt.Errorf("%w: %s is required", ErrInvalidUser, strings.ToLower(fe.Field()))
	}
}
