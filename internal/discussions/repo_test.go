package discussions

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

func seed(t *testing.T, db *sql.DB) (userID, movieID int64) {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (email, display_name, password_hash) VALUES ('a@b.c', 'Alice', 'x')`)
	require.NoError(t, err)
	userID, _ = res.LastInsertId()

	res, err = db.Exec(`INSERT INTO movies (tmdb_id, title) VALUES (27205, 'Inception')`)
	require.NoError(t, err)
	movieID, _ = res.LastInsertId()
	return
}

func TestCreateAndGetDiscussion(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID := seed(t, db)
	ctx := context.Background()
	ref := models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}

	disc, err := repo.Create(ctx, userID, ref, "Did the top fall?")
	require.NoError(t, err)
	assert.Equal(t, "Did the top fall?", disc.Title)
	assert.Equal(t, "Alice", disc.DisplayName)
	assert.Equal(t, ref, disc.Target)
	assert.Zero(t, disc.CommentCount)

	_, err = repo.Get(ctx, disc.DiscussionID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentsOrderedOldestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID := seed(t, db)
	ctx := context.Background()

	disc, err := repo.Create(ctx, userID, models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}, "Ending")
	require.NoError(t, err)

	first, err := repo.AddComment(ctx, disc.DiscussionID, userID, "first")
	require.NoError(t, err)
	_, err = repo.AddComment(ctx, disc.DiscussionID, userID, "second")
	require.NoError(t, err)

	got, err := repo.Get(ctx, disc.DiscussionID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentCount)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, first.CommentID, got.Comments[0].CommentID)
	assert.Equal(t, "Alice", got.Comments[0].DisplayName)
}

func TestAddCommentMissingDiscussion(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, _ := seed(t, db)

	_, err := repo.AddComment(context.Background(), 999, userID, "lost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMostDiscussedRanking(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID := seed(t, db)
	ctx := context.Background()
	ref := models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}

	quiet, err := repo.Create(ctx, userID, ref, "quiet thread")
	require.NoError(t, err)
	busy, err := repo.Create(ctx, userID, ref, "busy thread")
	require.NoError(t, err)
	for _, msg := range []string{"a", "b", "c"} {
		_, err = repo.AddComment(ctx, busy.DiscussionID, userID, msg)
		require.NoError(t, err)
	}
	_, err = repo.AddComment(ctx, quiet.DiscussionID, userID, "only one")
	require.NoError(t, err)

	ranked, err := repo.MostDiscussed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, busy.DiscussionID, ranked[0].DiscussionID)
	assert.Equal(t, 3, ranked[0].CommentCount)
	assert.Equal(t, 1, ranked[1].CommentCount)
}

func TestListForTargetFiltersByTitle(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID := seed(t, db)
	ctx := context.Background()

	res, err := db.Exec(`INSERT INTO shows (tmdb_id, title) VALUES (1396, 'Breaking Bad')`)
	require.NoError(t, err)
	showID, _ := res.LastInsertId()

	_, err = repo.Create(ctx, userID, models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}, "movie talk")
	require.NoError(t, err)
	_, err = repo.Create(ctx, userID, models.MediaRef{Type: models.MediaTypeShow, ID: showID}, "show talk")
	require.NoError(t, err)

	movieThreads, err := repo.ListForTarget(ctx, models.MediaRef{Type: models.MediaTypeMovie, ID: movieID})
	require.NoError(t, err)
	require.Len(t, movieThreads, 1)
	assert.Equal(t, "movie talk", movieThreads[0].Title)
}

func TestDeleteCommentOnlyOwn(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	userID, movieID := seed(t, db)
	ctx := context.Background()

	disc, err := repo.Create(ctx, userID, models.MediaRef{Type: models.MediaTypeMovie, ID: movieID}, "t")
	require.NoError(t, err)
	comment, err := repo.AddComment(ctx, disc.DiscussionID, userID, "mine")
	require.NoError(t, err)

	err = repo.DeleteComment(ctx, comment.CommentID, userID+1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteComment(ctx, comment.CommentID, userID))
	err = repo.DeleteComment(ctx, comment.CommentID, userID)
	assert.ErrorIs(t, err, ErrNotFound)
}
