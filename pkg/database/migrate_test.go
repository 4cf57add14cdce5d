package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	require.NoError(t, Migrate(db))

	var count int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('movies', 'shows', 'reviews', 'watchlists', 'etl_runs')
	`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	require.NoError(t, Migrate(db))
	_, err = db.Exec(`INSERT INTO genres (tmdb_genre_id, name) VALUES (28, 'Action')`)
	require.NoError(t, err)

	// applying the schema again must not touch existing data
	require.NoError(t, Migrate(db))

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM genres WHERE tmdb_genre_id = 28`).Scan(&name))
	assert.Equal(t, "Action", name)
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()
	require.NoError(t, Migrate(db))

	_, err = db.Exec(`INSERT INTO seasons (show_id, season_number) VALUES (999, 1)`)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
}

func TestTargetColumnsAreExclusive(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()
	require.NoError(t, Migrate(db))

	// real parent rows so the CHECK is what fires, not a foreign key
	_, err = db.Exec(`INSERT INTO users (user_id, email, display_name, password_hash) VALUES (1, 'a@b.test', 'A', 'x')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO movies (movie_id, tmdb_id, title) VALUES (1, 100, 'Heat')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO shows (show_id, tmdb_id, title) VALUES (1, 200, 'Fargo')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO reviews (user_id, movie_id, show_id, rating) VALUES (1, 1, 1, 7)`)
	require.Error(t, err)
	assert.True(t, IsCheckViolation(err), "review with both targets: %v", err)

	_, err = db.Exec(`INSERT INTO reviews (user_id, rating) VALUES (1, 7)`)
	require.Error(t, err)
	assert.True(t, IsCheckViolation(err), "review with no target: %v", err)

	_, err = db.Exec(`INSERT INTO watchlists (user_id, movie_id, show_id) VALUES (1, 1, 1)`)
	require.Error(t, err)
	assert.True(t, IsCheckViolation(err), "watchlist entry with both targets: %v", err)

	_, err = db.Exec(`INSERT INTO favorites (user_id) VALUES (1)`)
	require.Error(t, err)
	assert.True(t, IsCheckViolation(err), "favorite with no target: %v", err)
}
