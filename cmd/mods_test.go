package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"mod-catalog-mirror/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMods(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	seedMod(t, gdb, "Older", 48*time.Hour, "Suits")
	seedMod(t, gdb, "Newer", time.Hour, "Items", "Misc")

	var buf bytes.Buffer
	require.NoError(t, runMods(ctx, &buf, gdb, db.DefaultModQueryOptions(), testNow))
	out := buf.String()

	assert.Less(t, strings.Index(out, "Newer"), strings.Index(out, "Older"), "newest first")
	assert.Contains(t, out, "Items, Misc")
	assert.Contains(t, out, "1 hour ago")

	buf.Reset()
	opts := db.DefaultModQueryOptions()
	opts.ExcludedCategories = []string{"Suits"}
	require.NoError(t, runMods(ctx, &buf, gdb, opts, testNow))
	assert.NotContains(t, buf.String(), "Older")

	buf.Reset()
	opts.ExcludedCategories = []string{"Suits", "Misc"}
	require.NoError(t, runMods(ctx, &buf, gdb, opts, testNow))
	assert.Contains(t, buf.String(), "No mods found.")
}

func TestRunRate(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	mod := seedMod(t, gdb, "BiggerLobby", time.Hour)
	alice := seedUser(t, gdb, "alice")

	var buf bytes.Buffer
	require.NoError(t, runRate(ctx, &buf, gdb, "alice", mod.ID.String(), "like"))
	assert.Contains(t, buf.String(), "alice rated BiggerLobby: Like")

	rating, err := db.UserRating(ctx, gdb, mod.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, db.Like, rating)

	require.NoError(t, runRate(ctx, &buf, gdb, "alice", mod.ID.String(), "DISLIKE"))
	rating, err = db.UserRating(ctx, gdb, mod.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, db.Dislike, rating)

	tests := []struct {
		name  string
		user  string
		mod   string
		value string
	}{
		{"bad uuid", "alice", "not-a-uuid", "like"},
		{"bad value", "alice", mod.ID.String(), "meh"},
		{"unknown user", "bob", mod.ID.String(), "like"},
		{"unknown mod", "alice", testModID("missing").String(), "like"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, runRate(ctx, &buf, gdb, tt.user, tt.mod, tt.value))
		})
	}
}

func TestRunLikes(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	liked := seedMod(t, gdb, "Liked", time.Hour)
	disliked := seedMod(t, gdb, "Disliked", time.Hour)
	alice := seedUser(t, gdb, "alice")
	require.NoError(t, db.RateMod(ctx, gdb, liked.ID, alice.ID, db.Like))
	require.NoError(t, db.RateMod(ctx, gdb, disliked.ID, alice.ID, db.Dislike))

	var buf bytes.Buffer
	require.NoError(t, runLikes(ctx, &buf, gdb, "alice", 10, testNow))
	assert.Contains(t, buf.String(), "Liked")
	assert.NotContains(t, buf.String(), "Disliked")

	assert.Error(t, runLikes(ctx, &buf, gdb, "bob", 10, testNow))
}

func TestRunUserAdd(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runUserAdd(ctx, &buf, gdb, "alice", ""))
	assert.Contains(t, buf.String(), "Created user alice")

	user, err := db.FindUser(ctx, gdb, "alice")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	err = runUserAdd(ctx, &buf, gdb, "alice", "")
	assert.ErrorIs(t, err, db.ErrUsernameTaken)
}
