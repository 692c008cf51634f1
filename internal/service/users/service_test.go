package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vovakirdan/chatbot-server/internal/auth"
	"github.com/vovakirdan/chatbot-server/internal/store/sqlite"
)

func newTestUserService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return New(st, auth.NewHasher(bcrypt.MinCost))
}

func register(t *testing.T, svc *Service, name, email, password string) string {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return user.ID
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
		want string
	}{
		{"empty name", RegisterRequest{Name: " ", Email: "a@example.com", Password: "pw"}, "name is required"},
		{"empty email", RegisterRequest{Name: "alice", Email: "", Password: "pw"}, "email is required"},
		{"malformed email", RegisterRequest{Name: "alice", Email: "not-an-email", Password: "pw"}, "email is not well-formed"},
		{"empty password", RegisterRequest{Name: "alice", Email: "a@example.com"}, "password is required"},
		{"password too long", RegisterRequest{Name: "alice", Email: "a@example.com", Password: strings.Repeat("x", 100)}, "at most 72 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			if !errors.Is(err, ErrInvalidUser) {
				t.Fatalf("expected ErrInvalidUser, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Name: "alice", Email: "alice@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if user.PasswordHash == "secret" || user.PasswordHash == "" {
		t.Fatalf("expected hashed password, got %q", user.PasswordHash)
	}
	if user.Friends == nil || user.PendingFriendRequests == nil {
		t.Fatal("expected empty friend lists, got nil")
	}
}

func TestRegister_DuplicateEmailCreatesNothing(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	register(t, svc, "alice", "alice@example.com", "pw")

	_, err := svc.Register(ctx, RegisterRequest{Name: "alice2", Email: "alice@example.com", Password: "pw"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterRequest{Name: "alice", Email: "other@example.com", Password: "pw"})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 user, got %d", len(all))
	}
}

func TestLogin(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	id := register(t, svc, "alice", "alice@example.com", "secret")

	user, err := svc.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != id {
		t.Fatalf("expected user %s, got %s", id, user.ID)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLookups(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	id := register(t, svc, "alice", "alice@example.com", "pw")

	name, err := svc.NameByID(ctx, id)
	if err != nil || name != "alice" {
		t.Fatalf("NameByID = %q, %v", name, err)
	}

	gotID, err := svc.IDByName(ctx, "alice")
	if err != nil || gotID != id {
		t.Fatalf("IDByName = %q, %v", gotID, err)
	}

	if _, err := svc.NameByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.IDByName(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListAllEmpty(t *testing.T) {
	svc := newTestUserService(t)

	all, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", all)
	}
}
