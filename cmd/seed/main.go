package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"movietracker/internal/etl"
	"movietracker/pkg/database"
)

// seed loads CSV fixtures into the catalog so the API has browsable data
// without hitting the upstream API. Re-running it updates rows in place.
func main() {
	var (
		genresIn = flag.String("genres", "data/genres.csv", "input CSV path for genres")
		moviesIn = flag.String("movies", "data/movies.csv", "input CSV path for movies")
		showsIn  = flag.String("shows", "data/shows.csv", "input CSV path for shows")
		admin    = flag.String("admin", "admin@movietracker.local", "email for the seeded admin account")
		adminPw  = flag.String("admin-password", "changeme", "password for the seeded admin account")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := seedGenres(ctx, db, *genresIn); err != nil {
		log.Fatalf("seed genres failed: %v", err)
	}
	if err := seedMovies(ctx, db, *moviesIn); err != nil {
		log.Fatalf("seed movies failed: %v", err)
	}
	if err := seedShows(ctx, db, *showsIn); err != nil {
		log.Fatalf("seed shows failed: %v", err)
	}
	if err := seedAdmin(ctx, db, *admin, *adminPw); err != nil {
		log.Fatalf("seed admin failed: %v", err)
	}

	log.Printf("✅ seeded genres from %s, movies from %s, shows from %s", *genresIn, *moviesIn, *showsIn)
}

func seedGenres(ctx context.Context, db *sql.DB, path string) error {
	rows, header, err := openCSV(path)
	if err != nil {
		return err
	}
	defer rows.close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for {
		row, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(valueAt(header, row, "tmdb_genre_id"), 10, 64)
		if err != nil {
			return fmt.Errorf("parse tmdb_genre_id: %w", err)
		}
		name := valueAt(header, row, "name")
		if name == "" {
			continue
		}
		if err := etl.UpsertGenre(tx, id, name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func seedMovies(ctx context.Context, db *sql.DB, path string) error {
	rows, header, err := openCSV(path)
	if err != nil {
		return err
	}
	defer rows.close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for {
		row, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		tmdbID, err := strconv.ParseInt(valueAt(header, row, "tmdb_id"), 10, 64)
		if err != nil {
			return fmt.Errorf("parse tmdb_id: %w", err)
		}
		title := valueAt(header, row, "title")
		if title == "" {
			continue
		}

		movieID, err := etl.UpsertMovie(tx, etl.MovieRecord{
			TmdbID:           tmdbID,
			Title:            title,
			ReleaseDate:      valueAt(header, row, "release_date"),
			RuntimeMin:       parseInt(valueAt(header, row, "runtime_min")),
			Overview:         valueAt(header, row, "overview"),
			PosterPath:       valueAt(header, row, "poster_path"),
			OriginalLanguage: valueAt(header, row, "original_language"),
			VoteAvg:          parseFloat(valueAt(header, row, "tmdb_vote_avg")),
			Popularity:       parseFloat(valueAt(header, row, "popularity")),
		})
		if err != nil {
			return err
		}
		for _, genreID := range parseGenreIDs(valueAt(header, row, "genre_ids")) {
			if err := etl.LinkMovieGenre(tx, movieID, genreID); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func seedShows(ctx context.Context, db *sql.DB, path string) error {
	rows, header, err := openCSV(path)
	if err != nil {
		return err
	}
	defer rows.close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for {
		row, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		tmdbID, err := strconv.ParseInt(valueAt(header, row, "tmdb_id"), 10, 64)
		if err != nil {
			return fmt.Errorf("parse tmdb_id: %w", err)
		}
		title := valueAt(header, row, "title")
		if title == "" {
			continue
		}

		showID, err := etl.UpsertShow(tx, etl.ShowRecord{
			TmdbID:           tmdbID,
			Title:            title,
			FirstAirDate:     valueAt(header, row, "first_air_date"),
			LastAirDate:      valueAt(header, row, "last_air_date"),
			Overview:         valueAt(header, row, "overview"),
			PosterPath:       valueAt(header, row, "poster_path"),
			OriginalLanguage: valueAt(header, row, "original_language"),
			VoteAvg:          parseFloat(valueAt(header, row, "tmdb_vote_avg")),
			Popularity:       parseFloat(valueAt(header, row, "popularity")),
		})
		if err != nil {
			return err
		}
		for _, genreID := range parseGenreIDs(valueAt(header, row, "genre_ids")) {
			if err := etl.LinkShowGenre(tx, showID, genreID); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func seedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (email, display_name, password_hash)
		VALUES (?, 'Admin', ?)
		ON CONFLICT(email) DO NOTHING
	`, email, string(hash))
	return err
}

type csvRows struct {
	f *os.File
	r *csv.Reader
}

func (c *csvRows) next() ([]string, error) { return c.r.Read() }
func (c *csvRows) close()                  { c.f.Close() }

func openCSV(path string) (*csvRows, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	row, err := r.Read()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return &csvRows{f: f, r: r}, header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseInt(raw string) int64 {
	n, _ := strconv.ParseInt(raw, 10, 64)
	return n
}

func parseFloat(raw string) float64 {
	f, _ := strconv.ParseFloat(raw, 64)
	return f
}

// parseGenreIDs splits a pipe-separated list like "28|12|16".
func parseGenreIDs(raw string) []int64 {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}
