package etl

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// The upsert helpers below run inside a caller-owned transaction so one
// title's movie row, genre links and cast credits land atomically.
// Every statement keys on the TMDb identifier, so re-running a sync
// updates rows in place instead of duplicating them.

type MovieRecord struct {
	TmdbID           int64
	Title            string
	ReleaseDate      string
	RuntimeMin       int64
	Overview         string
	PosterPath       string
	BackdropPath     string
	OriginalLanguage string
	VoteAvg          float64
	Popularity       float64
}

type ShowRecord struct {
	TmdbID           int64
	Title            string
	FirstAirDate     string
	LastAirDate      string
	Overview         string
	PosterPath       string
	BackdropPath     string
	OriginalLanguage string
	VoteAvg          float64
	Popularity       float64
}

type PersonRecord struct {
	TmdbPersonID int64
	Name         string
	ProfilePath  string
	Birthday     string
	Deathday     string
	PlaceOfBirth string
	Biography    string
	ImdbID       string
	InstagramID  string
	TwitterID    string
	FacebookID   string
}

func UpsertGenre(tx *sql.Tx, tmdbGenreID int64, name string) error {
	_, err := tx.Exec(`
		INSERT INTO genres (tmdb_genre_id, name)
		VALUES (?, ?)
		ON CONFLICT(tmdb_genre_id) DO UPDATE SET name = excluded.name
	`, tmdbGenreID, name)
	if err != nil {
		return fmt.Errorf("upsert genre %d: %w", tmdbGenreID, err)
	}
	return nil
}

// UpsertMovie writes the movie row and returns its local id. All mutable
// fields are refreshed on conflict; created_at is left alone.
func UpsertMovie(tx *sql.Tx, rec MovieRecord) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO movies (tmdb_id, title, release_year, release_date, runtime_min,
		                    overview, poster_path, backdrop_path, original_language,
		                    tmdb_vote_avg, popularity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tmdb_id) DO UPDATE SET
			title             = excluded.title,
			release_year      = excluded.release_year,
			release_date      = excluded.release_date,
			runtime_min       = excluded.runtime_min,
			overview          = excluded.overview,
			poster_path       = excluded.poster_path,
			backdrop_path     = excluded.backdrop_path,
			original_language = excluded.original_language,
			tmdb_vote_avg     = excluded.tmdb_vote_avg,
			popularity        = excluded.popularity
	`, rec.TmdbID, rec.Title, yearOf(rec.ReleaseDate), nullStr(rec.ReleaseDate),
		nullInt(rec.RuntimeMin), nullStr(rec.Overview), nullStr(rec.PosterPath),
		nullStr(rec.BackdropPath), nullStr(rec.OriginalLanguage),
		nullFloat(rec.VoteAvg), nullFloat(rec.Popularity))
	if err != nil {
		return 0, fmt.Errorf("upsert movie %d: %w", rec.TmdbID, err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT movie_id FROM movies WHERE tmdb_id = ?`, rec.TmdbID).Scan(&id); err != nil {
		return 0, fmt.Errorf("movie id for tmdb %d: %w", rec.TmdbID, err)
	}
	return id, nil
}

func UpsertShow(tx *sql.Tx, rec ShowRecord) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO shows (tmdb_id, title, first_air_date, last_air_date,
		                   overview, poster_path, backdrop_path, original_language,
		                   tmdb_vote_avg, popularity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tmdb_id) DO UPDATE SET
			title             = excluded.title,
			first_air_date    = excluded.first_air_date,
			last_air_date     = excluded.last_air_date,
			overview          = excluded.overview,
			poster_path       = excluded.poster_path,
			backdrop_path     = excluded.backdrop_path,
			original_language = excluded.original_language,
			tmdb_vote_avg     = excluded.tmdb_vote_avg,
			popularity        = excluded.popularity
	`, rec.TmdbID, rec.Title, nullStr(rec.FirstAirDate), nullStr(rec.LastAirDate),
		nullStr(rec.Overview), nullStr(rec.PosterPath), nullStr(rec.BackdropPath),
		nullStr(rec.OriginalLanguage), nullFloat(rec.VoteAvg), nullFloat(rec.Popularity))
	if err != nil {
		return 0, fmt.Errorf("upsert show %d: %w", rec.TmdbID, err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT show_id FROM shows WHERE tmdb_id = ?`, rec.TmdbID).Scan(&id); err != nil {
		return 0, fmt.Errorf("show id for tmdb %d: %w", rec.TmdbID, err)
	}
	return id, nil
}

// UpsertPerson keeps existing biographical detail when the incoming record
// lacks it: a cast listing knows less about a person than a previous full
// person fetch did.
func UpsertPerson(tx *sql.Tx, rec PersonRecord) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO people (tmdb_person_id, name, profile_path, birthday, deathday,
		                    place_of_birth, biography, imdb_id, instagram_id, twitter_id, facebook_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tmdb_person_id) DO UPDATE SET
			name           = excluded.name,
			profile_path   = COALESCE(excluded.profile_path, people.profile_path),
			birthday       = COALESCE(excluded.birthday, people.birthday),
			deathday       = COALESCE(excluded.deathday, people.deathday),
			place_of_birth = COALESCE(excluded.place_of_birth, people.place_of_birth),
			biography      = COALESCE(excluded.biography, people.biography),
			imdb_id        = COALESCE(excluded.imdb_id, people.imdb_id),
			instagram_id   = COALESCE(excluded.instagram_id, people.instagram_id),
			twitter_id     = COALESCE(excluded.twitter_id, people.twitter_id),
			facebook_id    = COALESCE(excluded.facebook_id, people.facebook_id)
	`, rec.TmdbPersonID, rec.Name, nullStr(rec.ProfilePath), nullStr(rec.Birthday),
		nullStr(rec.Deathday), nullStr(rec.PlaceOfBirth), nullStr(rec.Biography),
		nullStr(rec.ImdbID), nullStr(rec.InstagramID), nullStr(rec.TwitterID), nullStr(rec.FacebookID))
	if err != nil {
		return 0, fmt.Errorf("upsert person %d: %w", rec.TmdbPersonID, err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT person_id FROM people WHERE tmdb_person_id = ?`, rec.TmdbPersonID).Scan(&id); err != nil {
		return 0, fmt.Errorf("person id for tmdb %d: %w", rec.TmdbPersonID, err)
	}
	return id, nil
}

func LinkMovieGenre(tx *sql.Tx, movieID, tmdbGenreID int64) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO movie_genres (movie_id, genre_id)
		SELECT ?, genre_id FROM genres WHERE tmdb_genre_id = ?
	`, movieID, tmdbGenreID)
	if err != nil {
		return fmt.Errorf("link movie %d genre %d: %w", movieID, tmdbGenreID, err)
	}
	return nil
}

func LinkShowGenre(tx *sql.Tx, showID, tmdbGenreID int64) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO show_genres (show_id, genre_id)
		SELECT ?, genre_id FROM genres WHERE tmdb_genre_id = ?
	`, showID, tmdbGenreID)
	if err != nil {
		return fmt.Errorf("link show %d genre %d: %w", showID, tmdbGenreID, err)
	}
	return nil
}

func AttachMovieCast(tx *sql.Tx, movieID, personID int64, character string, order int64) error {
	_, err := tx.Exec(`
		INSERT INTO movie_cast (movie_id, person_id, character, cast_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(movie_id, person_id) DO UPDATE SET
			character  = excluded.character,
			cast_order = excluded.cast_order
	`, movieID, personID, nullStr(character), order)
	if err != nil {
		return fmt.Errorf("attach cast movie %d person %d: %w", movieID, personID, err)
	}
	return nil
}

func AttachShowCast(tx *sql.Tx, showID, personID int64, character string, order int64) error {
	_, err := tx.Exec(`
		INSERT INTO show_cast (show_id, person_id, character, cast_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(show_id, person_id) DO UPDATE SET
			character  = excluded.character,
			cast_order = excluded.cast_order
	`, showID, personID, nullStr(character), order)
	if err != nil {
		return fmt.Errorf("attach cast show %d person %d: %w", showID, personID, err)
	}
	return nil
}

func UpsertSeason(tx *sql.Tx, showID, seasonNumber int64, title, airDate string) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO seasons (show_id, season_number, title, air_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(show_id, season_number) DO UPDATE SET
			title    = excluded.title,
			air_date = excluded.air_date
	`, showID, seasonNumber, nullStr(title), nullStr(airDate))
	if err != nil {
		return 0, fmt.Errorf("upsert season %d of show %d: %w", seasonNumber, showID, err)
	}

	var id int64
	err = tx.QueryRow(`
		SELECT season_id FROM seasons WHERE show_id = ? AND season_number = ?
	`, showID, seasonNumber).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("season id for show %d number %d: %w", showID, seasonNumber, err)
	}
	return id, nil
}

func UpsertEpisode(tx *sql.Tx, seasonID, episodeNumber int64, title, airDate string, runtimeMin int64) error {
	_, err := tx.Exec(`
		INSERT INTO episodes (season_id, episode_number, title, air_date, runtime_min)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(season_id, episode_number) DO UPDATE SET
			title       = excluded.title,
			air_date    = excluded.air_date,
			runtime_min = excluded.runtime_min
	`, seasonID, episodeNumber, nullStr(title), nullStr(airDate), nullInt(runtimeMin))
	if err != nil {
		return fmt.Errorf("upsert episode %d of season %d: %w", episodeNumber, seasonID, err)
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

// yearOf extracts the leading year from a YYYY-MM-DD date, or NULL when
// the date is absent or malformed.
func yearOf(date string) any {
	if len(date) < 4 {
		return nil
	}
	head, _, _ := strings.Cut(date, "-")
	year, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return nil
	}
	return year
}
