package watchlist

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietracker/pkg/database"
	"movietracker/pkg/models"
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

func seed(t *testing.T, db *sql.DB) (userID, movieID, showID int64) {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (email, display_name, password_hash) VALUES ('a@b.c', 'A', 'x')`)
	require.NoError(t, err)
	userID, _ = res.LastInsertId()

	res, err = db.Exec(`INSERT INTO movies (tmdb_id, title, poster_path) VALUES (603, 'The Matrix', '/matrix.jpg')`)
	require.NoError(t, err)
	movieID, _ = res.LastInsertId()

	res, err = db.Exec(`INSERT INTO shows (tmdb_id, title) VALUES (1396, 'Breaking Bad')`)
	require.NoError(t, err)
	showID, _ = res.LastInsertId()
	return
}

func TestAddIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID, _ := seed(t, db)
	ctx := context.Background()
	ref := models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}

	require.NoError(t, repo.Add(ctx, Watchlist, userID, ref))
	// re-adding is absorbed, not duplicated and not an error
	require.NoError(t, repo.Add(ctx, Watchlist, userID, ref))

	entries, total, err := repo.ListEntries(ctx, Watchlist, userID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "The Matrix", entries[0].Title)
	assert.Equal(t, "/matrix.jpg", entries[0].PosterPath)
}

func TestWatchlistAndFavoritesAreSeparate(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID, showID := seed(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, Watchlist, userID, models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}))
	require.NoError(t, repo.Add(ctx, Favorites, userID, models.MediaRef{Type: models.MediaTypeShow, ID: showID}))

	_, total, err := repo.ListEntries(ctx, Watchlist, userID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	favs, total, err := repo.ListEntries(ctx, Favorites, userID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.MediaTypeShow, favs[0].Target.Type)
	assert.Equal(t, "Breaking Bad", favs[0].Title)
}

func TestAddRejectsInvalidTarget(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, _, _ := seed(t, db)

	err := repo.Add(context.Background(), Watchlist, userID, models.MediaRef{})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestAddMissingTitleIsNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, _, _ := seed(t, db)

	err := repo.Add(context.Background(), Watchlist, userID, models.MediaRef{Type: models.MediaTypeMovie, ID: 9999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID, _ := seed(t, db)
	ctx := context.Background()
	ref := models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}

	require.NoError(t, repo.Add(ctx, Watchlist, userID, ref))

	removed, err := repo.Remove(ctx, Watchlist, userID, ref)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, Watchlist, userID, ref)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestEntriesCascadeWithUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID, _ := seed(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, Favorites, userID, models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}))

	_, err := db.Exec(`DELETE FROM users WHERE user_id = ?`, userID)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM favorites`).Scan(&n))
	assert.Zero(t, n)
}
