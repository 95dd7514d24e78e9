package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	auth     api.AuthServiceClient
	profiles api.ProfileServiceClient
	ledger   api.LedgerServiceClient
}

// session is a registered user and the token that acts as them.
type session struct {
	ID    string
	Token string
}

// setupTestServer serves all three services over httptest with the same
// interceptors as the real server, backed by a temp SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	l := ledger.New(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authed := connect.WithInterceptors(middleware.RequireAuth(jwtManager))
	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(
		NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager)),
	))
	mux.Handle(api.NewProfileServiceHandler(NewProfileService(l, store), authed))
	mux.Handle(api.NewLedgerServiceHandler(NewLedgerService(l), authed))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		auth:     api.NewAuthServiceClient(server.Client(), server.URL),
		profiles: api.NewProfileServiceClient(server.Client(), server.URL),
		ledger:   api.NewLedgerServiceClient(server.Client(), server.URL),
	}
}

// as builds a request carrying the user's token.
func as[T any](s *session, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if s != nil {
		req.Header().Set("Authorization", "Bearer "+s.Token)
	}
	return req
}

func (e *testEnv) register(t *testing.T, name string) *session {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "password-" + name,
	}))
	require.NoError(t, err)
	return &session{ID: resp.Msg.User.ID, Token: resp.Msg.Token}
}

func (e *testEnv) createProfile(t *testing.T, owner *session, shared bool, members ...*session) *api.Profile {
	t.Helper()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	resp, err := e.profiles.CreateProfile(context.Background(), as(owner, &api.CreateProfileRequest{
		Name:    "Flat",
		Shared:  shared,
		Members: ids,
	}))
	require.NoError(t, err)
	return resp.Msg.Profile
}

func (e *testEnv) balance(t *testing.T, s *session, profileID string) string {
	t.Helper()
	resp, err := e.ledger.GetBalance(context.Background(), as(s, &api.GetBalanceRequest{ProfileID: profileID}))
	require.NoError(t, err)
	return resp.Msg.Balance
}
