package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatbot-server/internal/auth"
	"github.com/vovakirdan/chatbot-server/internal/config"
	"github.com/vovakirdan/chatbot-server/internal/metrics"
	"github.com/vovakirdan/chatbot-server/internal/service/friends"
	"github.com/vovakirdan/chatbot-server/internal/service/groups"
	"github.com/vovakirdan/chatbot-server/internal/service/messages"
	"github.com/vovakirdan/chatbot-server/internal/service/users"
	"github.com/vovakirdan/chatbot-server/internal/store"
	"github.com/vovakirdan/chatbot-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// newTestRouter wires every service over a fresh store. Rate limiting is off.
func newTestRouter(t *testing.T, m *metrics.Metrics) *gin.Engine {
	t.Helper()

	st := createTestStore(t)
	cfg := config.Default()
	cfg.RateLimit.RPS = 0

	logger := zerolog.Nop()
	svc := Services{
		Users:    users.New(st, auth.NewHasher(4)),
		Friends:  friends.New(st),
		Messages: messages.New(st),
		Groups:   groups.New(st),
	}
	return NewRouter(svc, cfg, m, &logger)
}

// doJSON performs a request against router. body is JSON-encoded unless nil.
func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the recorded body into T.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// registerUser registers a user through the API and returns it.
func registerUser(t *testing.T, router http.Handler, name string) UserResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/users/register", RegisterRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret-" + name,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[UserResponse](t, rec)
}
