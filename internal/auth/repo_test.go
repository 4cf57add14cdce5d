package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietracker/pkg/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	// each pool connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndLookupUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	id, err := repo.CreateUser(ctx, "alice@example.com", "Alice", "hash")
	require.NoError(t, err)

	u, err := repo.GetByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Alice", u.DisplayName)
	assert.Zero(t, u.TokenVersion)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDuplicateEmailIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, "alice@example.com", "Alice", "hash")
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, "alice@example.com", "Other", "hash2")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestTokenVersionBumpInvalidatesOldClaims(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	id, err := repo.CreateUser(ctx, "alice@example.com", "Alice", "hash")
	require.NoError(t, err)

	before, err := repo.GetTokenVersion(ctx, id)
	require.NoError(t, err)

	require.NoError(t, repo.BumpTokenVersion(ctx, id))
	after, err := repo.GetTokenVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	require.NoError(t, repo.UpdatePasswordAndBumpTokenVersion(ctx, id, "newhash"))
	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "newhash", u.PasswordHash)
	assert.Equal(t, before+2, u.TokenVersion)
}

func TestBumpMissingUserFails(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	err := repo.BumpTokenVersion(context.Background(), 999)
	assert.Error(t, err)
}
