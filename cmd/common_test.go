package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mod-catalog-mirror/db"
	"mod-catalog-mirror/refresh"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var testNow = time.Date(2025, 3, 22, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func testModID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name))
}

// seedMod stores a mod updated age before testNow, linked to categories.
func seedMod(t *testing.T, gdb *gorm.DB, name string, age time.Duration, categories ...string) db.Mod {
	t.Helper()
	mod := db.Mod{
		ID:          testModID(name),
		Name:        name,
		Description: "desc",
		FullName:    "Owner-" + name,
		Owner:       "Owner",
		PackageURL:  fmt.Sprintf("https://thunderstore.io/c/lethal-company/p/Owner/%s/", name),
		UpdatedDate: testNow.Add(-age),
		Rating:      42,
	}
	require.NoError(t, gdb.Create(&mod).Error)
	for _, c := range categories {
		category := db.Category{Name: c}
		require.NoError(t, gdb.Where(db.Category{Name: c}).FirstOrCreate(&category).Error)
		require.NoError(t, gdb.Omit(clause.Associations).Create(&db.ModCategory{ModID: mod.ID, CategoryID: category.ID}).Error)
	}
	return mod
}

func seedUser(t *testing.T, gdb *gorm.DB, name string) db.User {
	t.Helper()
	user, err := db.CreateUser(context.Background(), gdb, name, "")
	require.NoError(t, err)
	return user
}

func TestErrorKind(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err      error
		expected string
	}{
		{&refresh.ConfigurationError{Msg: "x"}, "configuration"},
		{fmt.Errorf("wrapped: %w", &refresh.TransportError{Err: cause}), "transport"},
		{&refresh.StoreError{Op: "import", Err: cause}, "store"},
		{context.Canceled, "canceled"},
		{cause, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorKind(tt.err))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"Hello World", 5, "He..."},
		{"Hi", 5, "Hi"},
		{"Test", 4, "Test"},
		{"LongString", 7, "Long..."},
		{"", 5, ""},
		{"ÄÖÜäöüß", 6, "ÄÖÜ..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, truncate(tt.input, tt.maxLen), "truncate(%q, %d)", tt.input, tt.maxLen)
	}
}

func TestResolveUser(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, gdb, "alice")

	user, err := resolveUser(ctx, gdb, "")
	require.NoError(t, err)
	assert.Zero(t, user.ID)

	user, err = resolveUser(ctx, gdb, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	_, err = resolveUser(ctx, gdb, "bob")
	assert.ErrorIs(t, err, db.ErrUserNotFound)
}
