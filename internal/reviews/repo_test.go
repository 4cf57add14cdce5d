package reviews

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

type fixture struct {
	db      *sql.DB
	repo    *Repo
	userID  int64
	movieID int64
	showID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	res, err := db.Exec(`INSERT INTO users (email, display_name, password_hash) VALUES ('a@b.c', 'A', 'x')`)
	require.NoError(t, err)
	userID, _ := res.LastInsertId()

	res, err = db.Exec(`INSERT INTO movies (tmdb_id, title) VALUES (27205, 'Inception')`)
	require.NoError(t, err)
	movieID, _ := res.LastInsertId()

	res, err = db.Exec(`INSERT INTO shows (tmdb_id, title) VALUES (1396, 'Breaking Bad')`)
	require.NoError(t, err)
	showID, _ := res.LastInsertId()

	return &fixture{db: db, repo: NewRepo(db), userID: userID, movieID: movieID, showID: showID}
}

func (f *fixture) movieRef() models.MediaRef {
	return models.MediaRef{Type: models.MediaTypeMovie, ID: f.movieID}
}

func TestCreateAndGetReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.repo.Create(ctx, f.userID, f.movieRef(), 8.5, "great")
	require.NoError(t, err)
	assert.Equal(t, f.userID, review.UserID)
	assert.Equal(t, models.MediaTypeMovie, review.Target.Type)
	assert.Equal(t, f.movieID, review.Target.ID)
	assert.InDelta(t, 8.5, review.Rating, 0.001)
	assert.Equal(t, "great", review.Content)
	assert.False(t, review.CreatedAt.IsZero())
}

func TestCreateRejectsInvalidTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.Create(ctx, f.userID, models.MediaRef{}, 5, "")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = f.repo.Create(ctx, f.userID, models.MediaRef{Type: "both", ID: 1}, 5, "")
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestCreateRejectsRatingOutOfRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.Create(ctx, f.userID, f.movieRef(), 10.5, "")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = f.repo.Create(ctx, f.userID, f.movieRef(), -1, "")
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestCreateMissingTitleIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.Create(context.Background(), f.userID, models.MediaRef{Type: models.MediaTypeMovie, ID: 9999}, 5, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForTargetNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.repo.Create(ctx, f.userID, f.movieRef(), 6, "first")
	require.NoError(t, err)
	second, err := f.repo.Create(ctx, f.userID, f.movieRef(), 7, "second")
	require.NoError(t, err)

	list, err := f.repo.ListForTarget(ctx, f.movieRef(), 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ReviewID, list[0].ReviewID)
	assert.Equal(t, first.ReviewID, list[1].ReviewID)

	// show reviews do not leak into the movie listing
	_, err = f.repo.Create(ctx, f.userID, models.MediaRef{Type: models.MediaTypeShow, ID: f.showID}, 9, "show")
	require.NoError(t, err)
	list, err = f.repo.ListForTarget(ctx, f.movieRef(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUpdateOnlyOwnReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.repo.Create(ctx, f.userID, f.movieRef(), 6, "ok")
	require.NoError(t, err)

	updated, err := f.repo.Update(ctx, review.ReviewID, f.userID, 9, "rewatched")
	require.NoError(t, err)
	assert.InDelta(t, 9, updated.Rating, 0.001)
	assert.Equal(t, "rewatched", updated.Content)

	_, err = f.repo.Update(ctx, review.ReviewID, f.userID+1, 1, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReviewLeavesTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.repo.Create(ctx, f.userID, f.movieRef(), 6, "")
	require.NoError(t, err)

	deleted, err := f.repo.Delete(ctx, review.ReviewID, f.userID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM movies`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestReactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.repo.Create(ctx, f.userID, f.movieRef(), 8, "")
	require.NoError(t, err)

	require.NoError(t, f.repo.AddReaction(ctx, review.ReviewID, f.userID, "fire"))
	require.NoError(t, f.repo.AddReaction(ctx, review.ReviewID, f.userID, "like"))

	// same kind twice by the same user is a conflict
	err = f.repo.AddReaction(ctx, review.ReviewID, f.userID, "fire")
	assert.ErrorIs(t, err, ErrDuplicate)

	err = f.repo.AddReaction(ctx, review.ReviewID, f.userID, "meh")
	assert.ErrorIs(t, err, ErrInvalidReaction)

	got, err := f.repo.GetByID(ctx, review.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"fire": 1, "like": 1}, got.Reactions)

	removed, err := f.repo.RemoveReaction(ctx, review.ReviewID, f.userID, "fire")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.repo.RemoveReaction(ctx, review.ReviewID, f.userID, "fire")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestReactionsCascadeWithReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.repo.Create(ctx, f.userID, f.movieRef(), 8, "")
	require.NoError(t, err)
	require.NoError(t, f.repo.AddReaction(ctx, review.ReviewID, f.userID, "love"))

	_, err = f.repo.Delete(ctx, review.ReviewID, f.userID)
	require.NoError(t, err)

	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM review_reactions`).Scan(&n))
	assert.Zero(t, n)
}
