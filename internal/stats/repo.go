package stats

import (
	"context"
	"database/sql"
	"fmt"
)

type GenreCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int64  `json:"count"`
}

// Summary is a catalog-wide snapshot used by the dashboard endpoint.
type Summary struct {
	Movies       int64           `json:"movies"`
	Shows        int64           `json:"shows"`
	People       int64           `json:"people"`
	Reviews      int64           `json:"reviews"`
	Users        int64           `json:"users"`
	AvgVoteMovie *float64        `json:"avg_vote_movie"`
	AvgVoteShow  *float64        `json:"avg_vote_show"`
	TopGenres    []GenreCount    `json:"top_genres"`
	TopLanguages []LanguageCount `json:"top_languages"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Summary(ctx context.Context) (*Summary, error) {
	var s Summary

	err := r.DB.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM movies),
		       (SELECT COUNT(*) FROM shows),
		       (SELECT COUNT(*) FROM people),
		       (SELECT COUNT(*) FROM reviews),
		       (SELECT COUNT(*) FROM users),
		       (SELECT AVG(tmdb_vote_avg) FROM movies WHERE tmdb_vote_avg IS NOT NULL),
		       (SELECT AVG(tmdb_vote_avg) FROM shows WHERE tmdb_vote_avg IS NOT NULL)
	`).Scan(&s.Movies, &s.Shows, &s.People, &s.Reviews, &s.Users, &s.AvgVoteMovie, &s.AvgVoteShow)
	if err != nil {
		return nil, fmt.Errorf("summary counts: %w", err)
	}

	s.TopGenres, err = r.topGenres(ctx, 10)
	if err != nil {
		return nil, err
	}
	s.TopLanguages, err = r.topLanguages(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// topGenres counts titles per genre across movies and shows combined.
func (r *Repo) topGenres(ctx context.Context, limit int) ([]GenreCount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT g.name, COUNT(*) AS n
		FROM (
			SELECT genre_id FROM movie_genres
			UNION ALL
			SELECT genre_id FROM show_genres
		) links
		JOIN genres g ON g.genre_id = links.genre_id
		GROUP BY g.genre_id
		ORDER BY n DESC, g.name ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top genres: %w", err)
	}
	defer rows.Close()

	out := []GenreCount{}
	for rows.Next() {
		var gc GenreCount
		if err := rows.Scan(&gc.Name, &gc.Count); err != nil {
			return nil, fmt.Errorf("scan genre count: %w", err)
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

func (r *Repo) topLanguages(ctx context.Context, limit int) ([]LanguageCount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT lang, COUNT(*) AS n
		FROM (
			SELECT original_language AS lang FROM movies WHERE original_language IS NOT NULL
			UNION ALL
			SELECT original_language AS lang FROM shows WHERE original_language IS NOT NULL
		)
		GROUP BY lang
		ORDER BY n DESC, lang ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top languages: %w", err)
	}
	defer rows.Close()

	out := []LanguageCount{}
	for rows.Next() {
		var lc LanguageCount
		if err := rows.Scan(&lc.Language, &lc.Count); err != nil {
			return nil, fmt.Errorf("scan language count: %w", err)
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}
