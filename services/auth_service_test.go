package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewAuthService("admin@example.com", string(hash))
	ctx := context.Background()

	role, err := svc.Login(ctx, LoginInput{Email: "admin@example.com", Password: "sekret"})
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, role)

	_, err = svc.Login(ctx, LoginInput{Email: "admin@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "other@example.com", Password: "sekret"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestAuthLoginUnconfigured(t *testing.T) {
	svc := NewAuthService("", "")
	_, err := svc.Login(context.Background(), LoginInput{Email: "", Password: ""})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)
}
