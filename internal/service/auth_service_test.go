package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "alice")
	assert.NotEmpty(t, alice.ID)
	assert.NotEmpty(t, alice.Token)

	login, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "ALICE@example.com",
		Password: "password-alice",
	}))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, login.Msg.User.ID)
	assert.Equal(t, "alice", login.Msg.User.DisplayName)
	assert.False(t, login.Msg.User.CreatedAt.IsZero())

	me, err := env.auth.GetCurrentUser(ctx, as(&session{Token: login.Msg.Token}, &emptypb.Empty{}))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Msg.User.Email)
}

func TestRegisterErrors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	env.register(t, "alice")

	tests := []struct {
		name string
		req  *api.RegisterRequest
		code connect.Code
	}{
		{"duplicate email", &api.RegisterRequest{Email: "alice@example.com", DisplayName: "A", Password: "long enough"}, connect.CodeAlreadyExists},
		{"weak password", &api.RegisterRequest{Email: "bob@example.com", DisplayName: "Bob", Password: "short"}, connect.CodeInvalidArgument},
		{"missing email", &api.RegisterRequest{DisplayName: "Bob", Password: "long enough"}, connect.CodeInvalidArgument},
		{"missing name", &api.RegisterRequest{Email: "bob@example.com", Password: "long enough"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, connect.NewRequest(tt.req))
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestLoginErrors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	env.register(t, "alice")

	_, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "alice@example.com", Password: "wrong password"}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "ghost@example.com", Password: "whatever1"}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "alice@example.com"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = env.auth.GetCurrentUser(ctx, connect.NewRequest(&emptypb.Empty{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}
