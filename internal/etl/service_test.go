package etl

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

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

// fakeTMDb serves canned provider responses. Paths listed in failures
// return 500 that many times before succeeding; paths in broken always
// fail.
type fakeTMDb struct {
	mu       sync.Mutex
	failures map[string]int
	broken   map[string]bool
}

func (f *fakeTMDb) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		if f.broken[r.URL.Path] {
			f.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if n := f.failures[r.URL.Path]; n > 0 {
			f.failures[r.URL.Path] = n - 1
			f.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/genre/movie/list":
			fmt.Fprint(w, `{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`)
		case r.URL.Path == "/genre/tv/list":
			fmt.Fprint(w, `{"genres":[{"id":18,"name":"Drama"},{"id":10765,"name":"Sci-Fi & Fantasy"}]}`)
		case r.URL.Path == "/movie/popular":
			fmt.Fprint(w, `{"page":1,"total_pages":1,"results":[{"id":101},{"id":102}]}`)
		case r.URL.Path == "/tv/popular":
			fmt.Fprint(w, `{"page":1,"total_pages":1,"results":[{"id":201}]}`)
		case r.URL.Path == "/movie/101":
			fmt.Fprint(w, `{
				"id":101,"title":"Inception","release_date":"2010-07-15","runtime":148,
				"overview":"dreams","original_language":"en",
				"vote_average":8.4,"vote_count":30000,"popularity":95.2,
				"genres":[{"id":28,"name":"Action"}],
				"credits":{"cast":[{"id":301,"name":"Leonardo DiCaprio","character":"Cobb","order":0}]}
			}`)
		case r.URL.Path == "/movie/102":
			fmt.Fprint(w, `{
				"id":102,"title":"Obscure Short","release_date":"2020-01-01",
				"vote_average":5.0,"vote_count":3,"popularity":0.4,
				"genres":[],"credits":{"cast":[]}
			}`)
		case r.URL.Path == "/tv/201":
			fmt.Fprint(w, `{
				"id":201,"name":"Breaking Bad","first_air_date":"2008-01-20","last_air_date":"2013-09-29",
				"original_language":"en","vote_average":8.9,"vote_count":10000,"popularity":120.4,
				"genres":[{"id":18,"name":"Drama"}],
				"seasons":[{"season_number":0,"name":"Specials"},{"season_number":1,"name":"Season 1","air_date":"2008-01-20"}],
				"aggregate_credits":{"cast":[{"id":301,"name":"Leonardo DiCaprio","order":0,"roles":[{"character":"Lead"}]}]}
			}`)
		case r.URL.Path == "/tv/201/season/1":
			fmt.Fprint(w, `{
				"season_number":1,"name":"Season 1","air_date":"2008-01-20",
				"episodes":[
					{"episode_number":1,"name":"Pilot","air_date":"2008-01-20","runtime":58},
					{"episode_number":2,"name":"Cat's in the Bag...","air_date":"2008-01-27","runtime":48}
				]
			}`)
		case strings.HasPrefix(r.URL.Path, "/person/"):
			fmt.Fprint(w, `{
				"id":301,"name":"Leonardo DiCaprio","birthday":"1974-11-11",
				"place_of_birth":"Los Angeles","biography":"actor",
				"external_ids":{"imdb_id":"nm0000138"}
			}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestService(t *testing.T, db *sql.DB, fake *fakeTMDb) *Service {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client := NewClient("test-key")
	client.BaseURL = srv.URL
	client.RetryDelay = time.Millisecond

	cfg := DefaultConfig()
	cfg.Movies = 2
	cfg.Shows = 1
	cfg.MinVoteCount = 20
	cfg.MinPopularity = 1.0
	return NewService(db, client, cfg)
}

func TestRunIngestsCatalog(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &fakeTMDb{})

	stats, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.MoviesProcessed)
	assert.Equal(t, 1, stats.MoviesUpserted)
	assert.Equal(t, 1, stats.MoviesSkipped) // movie 102 fails the quality gate
	assert.Equal(t, 1, stats.ShowsUpserted)
	assert.Equal(t, 3, stats.GenresSynced) // 18 shared between the two lists
	assert.Equal(t, 1, stats.PeopleSynced) // cached after the first title
	assert.Zero(t, stats.Errors)

	var title string
	require.NoError(t, db.QueryRow(`SELECT title FROM movies WHERE tmdb_id = 101`).Scan(&title))
	assert.Equal(t, "Inception", title)

	var year int64
	require.NoError(t, db.QueryRow(`SELECT release_year FROM movies WHERE tmdb_id = 101`).Scan(&year))
	assert.Equal(t, int64(2010), year)

	// specials (season 0) are not stored
	var seasons int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM seasons`).Scan(&seasons))
	assert.Equal(t, 1, seasons)
	var episodes int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM episodes`).Scan(&episodes))
	assert.Equal(t, 2, episodes)

	var character string
	require.NoError(t, db.QueryRow(`
		SELECT sc.character FROM show_cast sc
		JOIN people p ON p.person_id = sc.person_id
		WHERE p.tmdb_person_id = 301
	`).Scan(&character))
	assert.Equal(t, "Lead", character)

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM etl_runs WHERE run_id = ?`, stats.RunID).Scan(&status))
	assert.Equal(t, "completed", status)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &fakeTMDb{})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	// second service, fresh person cache, same upstream data
	svc2 := newTestService(t, db, &fakeTMDb{})
	_, err = svc2.Run(context.Background())
	require.NoError(t, err)

	counts := map[string]int{}
	for _, table := range []string{"movies", "shows", "seasons", "episodes", "genres", "people", "movie_genres", "show_cast"} {
		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		counts[table] = n
	}
	assert.Equal(t, 1, counts["movies"])
	assert.Equal(t, 1, counts["shows"])
	assert.Equal(t, 1, counts["seasons"])
	assert.Equal(t, 2, counts["episodes"])
	assert.Equal(t, 3, counts["genres"])
	assert.Equal(t, 1, counts["people"])
	assert.Equal(t, 1, counts["movie_genres"])
	assert.Equal(t, 1, counts["show_cast"])

	var runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM etl_runs`).Scan(&runs))
	assert.Equal(t, 2, runs)
}

func TestBrokenTitleIsSkippedNotFatal(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeTMDb{broken: map[string]bool{"/movie/102": true}}
	svc := newTestService(t, db, fake)
	svc.Client.MaxRetries = 1

	stats, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.MoviesProcessed)
	assert.Equal(t, 1, stats.MoviesUpserted)
	assert.GreaterOrEqual(t, stats.Errors, 1)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM movies`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestClientRetriesTransientFailures(t *testing.T) {
	fake := &fakeTMDb{failures: map[string]int{"/genre/movie/list": 2}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient("test-key")
	client.BaseURL = srv.URL
	client.RetryDelay = time.Millisecond

	genres, err := client.MovieGenres(context.Background())
	require.NoError(t, err)
	assert.Len(t, genres, 2)
	assert.Equal(t, int64(3), client.Calls())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	fake := &fakeTMDb{broken: map[string]bool{"/genre/movie/list": true}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient("test-key")
	client.BaseURL = srv.URL
	client.RetryDelay = time.Millisecond
	client.MaxRetries = 2

	_, err := client.MovieGenres(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(3), client.Calls())
}

func TestFailedRunIsRecorded(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeTMDb{broken: map[string]bool{"/genre/movie/list": true, "/genre/tv/list": true}}
	svc := newTestService(t, db, fake)
	svc.Client.MaxRetries = 0

	stats, err := svc.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, stats)

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM etl_runs WHERE run_id = ?`, stats.RunID).Scan(&status))
	assert.Equal(t, "failed", status)
}
