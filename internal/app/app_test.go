package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatbot-server/internal/config"
)

func newTestConfig(t *testing.T, driver string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	cfg.Store.Driver = driver
	cfg.Store.Path = filepath.Join(t.TempDir(), "chatbot")
	cfg.Auth.BcryptCost = 4
	return &cfg
}

func TestNewWiresEveryDriver(t *testing.T) {
	logger := zerolog.Nop()

	for _, driver := range []string{config.DriverSQLite, config.DriverBadger} {
		t.Run(driver, func(t *testing.T) {
			a, err := New(newTestConfig(t, driver), &logger)
			require.NoError(t, err)
			t.Cleanup(a.Close)

			body := `{"name":"alice","email":"alice@example.com","password":"pw"}`
			req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			a.Handler().ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = httptest.NewRecorder()
			a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			require.Contains(t, rec.Body.String(), "chatbot_users_registered_total 1")
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	logger := zerolog.Nop()
	_, err := New(newTestConfig(t, "postgres"), &logger)
	require.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	logger := zerolog.Nop()
	a, err := New(newTestConfig(t, config.DriverSQLite), &logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
