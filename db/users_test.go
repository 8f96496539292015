package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()

	alice, err := CreateUser(ctx, gdb, " alice ", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA")
	require.NoError(t, err)
	assert.NotZero(t, alice.ID)
	assert.Equal(t, "alice", alice.Username)

	_, err = CreateUser(ctx, gdb, "alice", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = CreateUser(ctx, gdb, "  ", "")
	assert.Error(t, err)

	bob, err := CreateUser(ctx, gdb, "bob", "")
	require.NoError(t, err)
	assert.NotEqual(t, alice.ID, bob.ID)

	found, err := FindUser(ctx, gdb, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)
	assert.Equal(t, alice.PasswordHash, found.PasswordHash)

	_, err = FindUser(ctx, gdb, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
