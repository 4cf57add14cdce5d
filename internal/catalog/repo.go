package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"movietracker/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// ListQuery drives the paginated movie/show listings.
type ListQuery struct {
	Sort   string // "popularity" (default) or "rating"
	Limit  int
	Offset int
}

func (q *ListQuery) normalize() {
	if q.Sort != "rating" {
		q.Sort = "popularity"
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// Search matches a title substring across movies and shows in one pass.
// Ordering is part of the contract: unrated titles last, then rating
// descending, then title ascending.
func (r *Repo) Search(ctx context.Context, term string) ([]models.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.SearchResult{}, nil
	}
	like := "%" + strings.ToLower(term) + "%"

	rows, err := r.DB.QueryContext(ctx, `
		SELECT 'movie' AS target_type,
		       movie_id AS target_id,
		       title,
		       tmdb_vote_avg,
		       CAST(release_year AS TEXT) AS year_or_date
		FROM movies
		WHERE LOWER(title) LIKE ?
		UNION ALL
		SELECT 'show' AS target_type,
		       show_id AS target_id,
		       title,
		       tmdb_vote_avg,
		       first_air_date AS year_or_date
		FROM shows
		WHERE LOWER(title) LIKE ?
		ORDER BY tmdb_vote_avg DESC NULLS LAST, title ASC
		LIMIT 50
	`, like, like)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	out := make([]models.SearchResult, 0, 50)
	for rows.Next() {
		var (
			res        models.SearchResult
			targetType string
			voteAvg    sql.NullFloat64
			yearOrDate sql.NullString
		)
		if err := rows.Scan(&targetType, &res.TargetID, &res.Title, &voteAvg, &yearOrDate); err != nil {
			return nil, fmt.Errorf("search scan: %w", err)
		}
		res.TargetType = models.MediaType(targetType)
		if voteAvg.Valid {
			res.TmdbVoteAvg = &voteAvg.Float64
		}
		if yearOrDate.Valid {
			res.YearOrDate = &yearOrDate.String
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) ListMovies(ctx context.Context, q ListQuery) ([]models.Movie, int, error) {
	q.normalize()

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	orderBy := "popularity DESC"
	if q.Sort == "rating" {
		orderBy = "(tmdb_vote_avg IS NULL), tmdb_vote_avg DESC"
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT movie_id, tmdb_id, title, release_year, release_date, runtime_min,
		       overview, poster_path, backdrop_path, original_language,
		       tmdb_vote_avg, popularity
		FROM movies
		ORDER BY `+orderBy+`, title ASC
		LIMIT ? OFFSET ?
	`, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	out := make([]models.Movie, 0, q.Limit)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func (r *Repo) ListShows(ctx context.Context, q ListQuery) ([]models.Show, int, error) {
	q.normalize()

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shows: %w", err)
	}

	orderBy := "popularity DESC"
	if q.Sort == "rating" {
		orderBy = "(tmdb_vote_avg IS NULL), tmdb_vote_avg DESC"
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT show_id, tmdb_id, title, first_air_date, last_air_date,
		       overview, poster_path, backdrop_path, original_language,
		       tmdb_vote_avg, popularity
		FROM shows
		ORDER BY `+orderBy+`, title ASC
		LIMIT ? OFFSET ?
	`, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list shows: %w", err)
	}
	defer rows.Close()

	out := make([]models.Show, 0, q.Limit)
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// GetMovie assembles the detail view: the row, review aggregates computed at
// call time, genres in name order, and the top 10 cast by stored rank.
func (r *Repo) GetMovie(ctx context.Context, id int64) (*models.MovieDetail, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT m.movie_id, m.tmdb_id, m.title, m.release_year, m.release_date,
		       m.runtime_min, m.overview, m.poster_path, m.backdrop_path,
		       m.original_language, m.tmdb_vote_avg, m.popularity,
		       (SELECT AVG(rating) FROM reviews WHERE movie_id = m.movie_id) AS user_vote_avg,
		       (SELECT COUNT(*) FROM reviews WHERE movie_id = m.movie_id) AS review_count
		FROM movies m
		WHERE m.movie_id = ?
	`, id)

	var d models.MovieDetail
	m, userAvg, count, err := scanMovieDetail(row)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	d.Movie = *m
	d.UserVoteAvg = userAvg
	d.ReviewCount = count

	d.Genres, err = r.genreNames(ctx, `
		SELECT g.name
		FROM movie_genres mg
		JOIN genres g ON g.genre_id = mg.genre_id
		WHERE mg.movie_id = ?
		ORDER BY g.name
	`, id)
	if err != nil {
		return nil, err
	}

	d.TopCast, err = r.topCast(ctx, `
		SELECT p.person_id, p.name, mc.character, mc.cast_order
		FROM movie_cast mc
		JOIN people p ON p.person_id = mc.person_id
		WHERE mc.movie_id = ?
		ORDER BY mc.cast_order ASC
		LIMIT 10
	`, id)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *Repo) GetShow(ctx context.Context, id int64) (*models.ShowDetail, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT s.show_id, s.tmdb_id, s.title, s.first_air_date, s.last_air_date,
		       s.overview, s.poster_path, s.backdrop_path, s.original_language,
		       s.tmdb_vote_avg, s.popularity,
		       (SELECT AVG(rating) FROM reviews WHERE show_id = s.show_id) AS user_vote_avg,
		       (SELECT COUNT(*) FROM reviews WHERE show_id = s.show_id) AS review_count,
		       (SELECT COUNT(*) FROM seasons WHERE show_id = s.show_id) AS season_count
		FROM shows s
		WHERE s.show_id = ?
	`, id)

	var d models.ShowDetail
	var (
		releaseDate  sql.NullString
		lastAirDate  sql.NullString
		overview     sql.NullString
		posterPath   sql.NullString
		backdropPath sql.NullString
		language     sql.NullString
		voteAvg      sql.NullFloat64
		popularity   sql.NullFloat64
		userAvg      sql.NullFloat64
	)
	err := row.Scan(
		&d.ShowID, &d.TmdbID, &d.Title, &releaseDate, &lastAirDate,
		&overview, &posterPath, &backdropPath, &language,
		&voteAvg, &popularity, &userAvg, &d.ReviewCount, &d.SeasonCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan show detail: %w", err)
	}
	if releaseDate.Valid {
		d.FirstAirDate = &releaseDate.String
	}
	if lastAirDate.Valid {
		d.LastAirDate = &lastAirDate.String
	}
	d.Overview = overview.String
	d.PosterPath = posterPath.String
	d.BackdropPath = backdropPath.String
	d.OriginalLanguage = language.String
	if voteAvg.Valid {
		d.TmdbVoteAvg = &voteAvg.Float64
	}
	d.Popularity = popularity.Float64
	if userAvg.Valid {
		d.UserVoteAvg = &userAvg.Float64
	}

	d.Genres, err = r.genreNames(ctx, `
		SELECT g.name
		FROM show_genres sg
		JOIN genres g ON g.genre_id = sg.genre_id
		WHERE sg.show_id = ?
		ORDER BY g.name
	`, id)
	if err != nil {
		return nil, err
	}

	d.TopCast, err = r.topCast(ctx, `
		SELECT p.person_id, p.name, sc.character, sc.cast_order
		FROM show_cast sc
		JOIN people p ON p.person_id = sc.person_id
		WHERE sc.show_id = ?
		ORDER BY sc.cast_order ASC
		LIMIT 10
	`, id)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// ListSeasons returns a show's seasons with nested episodes, ordered by
// (season_number, episode_number). Returns nil when the show has no seasons.
func (r *Repo) ListSeasons(ctx context.Context, showID int64) ([]models.Season, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT se.season_id, se.season_number, se.title, se.air_date,
		       ep.episode_id, ep.episode_number, ep.title, ep.air_date, ep.runtime_min
		FROM seasons se
		LEFT JOIN episodes ep ON ep.season_id = se.season_id
		WHERE se.show_id = ?
		ORDER BY se.season_number ASC, ep.episode_number ASC
	`, showID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []models.Season
	byID := make(map[int64]int) // season_id -> index in seasons

	for rows.Next() {
		var (
			seasonID     int64
			seasonNumber int64
			seasonTitle  sql.NullString
			seasonAir    sql.NullString
			epID         sql.NullInt64
			epNumber     sql.NullInt64
			epTitle      sql.NullString
			epAir        sql.NullString
			epRuntime    sql.NullInt64
		)
		if err := rows.Scan(&seasonID, &seasonNumber, &seasonTitle, &seasonAir,
			&epID, &epNumber, &epTitle, &epAir, &epRuntime); err != nil {
			return nil, fmt.Errorf("scan season row: %w", err)
		}

		idx, ok := byID[seasonID]
		if !ok {
			season := models.Season{
				SeasonID:     seasonID,
				ShowID:       showID,
				SeasonNumber: seasonNumber,
				Title:        seasonTitle.String,
				Episodes:     []models.Episode{},
			}
			if seasonAir.Valid {
				season.AirDate = &seasonAir.String
			}
			seasons = append(seasons, season)
			idx = len(seasons) - 1
			byID[seasonID] = idx
		}

		if epID.Valid {
			ep := models.Episode{
				EpisodeID:     epID.Int64,
				EpisodeNumber: epNumber.Int64,
				Title:         epTitle.String,
			}
			if epAir.Valid {
				ep.AirDate = &epAir.String
			}
			if epRuntime.Valid {
				ep.RuntimeMin = &epRuntime.Int64
			}
			seasons[idx].Episodes = append(seasons[idx].Episodes, ep)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return seasons, nil
}

// GetPerson assembles identity fields, the social-link map constructed from
// stored external IDs, and both filmography lists ordered newest first.
func (r *Repo) GetPerson(ctx context.Context, id int64) (*models.PersonDetail, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT person_id, tmdb_person_id, name, profile_path, birthday, deathday,
		       place_of_birth, biography, imdb_id, instagram_id, twitter_id, facebook_id
		FROM people
		WHERE person_id = ?
	`, id)

	var (
		d            models.PersonDetail
		profilePath  sql.NullString
		birthday     sql.NullString
		deathday     sql.NullString
		placeOfBirth sql.NullString
		biography    sql.NullString
		imdbID       sql.NullString
		instagramID  sql.NullString
		twitterID    sql.NullString
		facebookID   sql.NullString
	)
	err := row.Scan(&d.PersonID, &d.TmdbPersonID, &d.Name, &profilePath,
		&birthday, &deathday, &placeOfBirth, &biography,
		&imdbID, &instagramID, &twitterID, &facebookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan person: %w", err)
	}

	d.ProfilePath = profilePath.String
	if birthday.Valid {
		d.Birthday = &birthday.String
	}
	if deathday.Valid {
		d.Deathday = &deathday.String
	}
	d.PlaceOfBirth = placeOfBirth.String
	d.Biography = biography.String

	d.SocialLinks = map[string]string{}
	if imdbID.Valid && imdbID.String != "" {
		d.SocialLinks["imdb"] = "https://www.imdb.com/name/" + imdbID.String + "/"
	}
	if instagramID.Valid && instagramID.String != "" {
		d.SocialLinks["instagram"] = "https://www.instagram.com/" + instagramID.String + "/"
	}
	if twitterID.Valid && twitterID.String != "" {
		d.SocialLinks["twitter"] = "https://twitter.com/" + twitterID.String
	}
	if facebookID.Valid && facebookID.String != "" {
		d.SocialLinks["facebook"] = "https://www.facebook.com/" + facebookID.String
	}

	d.MovieCredits, err = r.filmography(ctx, `
		SELECT m.movie_id, m.title, mc.character,
		       CAST(m.release_year AS TEXT), m.poster_path
		FROM movie_cast mc
		JOIN movies m ON m.movie_id = mc.movie_id
		WHERE mc.person_id = ?
		ORDER BY (m.release_year IS NULL), m.release_year DESC, m.title ASC
	`, id)
	if err != nil {
		return nil, err
	}

	d.ShowCredits, err = r.filmography(ctx, `
		SELECT s.show_id, s.title, sc.character,
		       s.first_air_date, s.poster_path
		FROM show_cast sc
		JOIN shows s ON s.show_id = sc.show_id
		WHERE sc.person_id = ?
		ORDER BY (s.first_air_date IS NULL), s.first_air_date DESC, s.title ASC
	`, id)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *Repo) genreNames(ctx context.Context, query string, id int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("genre names: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan genre name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *Repo) topCast(ctx context.Context, query string, id int64) ([]models.CastCredit, error) {
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("top cast: %w", err)
	}
	defer rows.Close()

	out := []models.CastCredit{}
	for rows.Next() {
		var credit models.CastCredit
		var character sql.NullString
		var castOrder sql.NullInt64
		if err := rows.Scan(&credit.PersonID, &credit.Name, &character, &castOrder); err != nil {
			return nil, fmt.Errorf("scan cast row: %w", err)
		}
		credit.Character = character.String
		credit.CastOrder = castOrder.Int64
		out = append(out, credit)
	}
	return out, rows.Err()
}

func (r *Repo) filmography(ctx context.Context, query string, id int64) ([]models.FilmCredit, error) {
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("filmography: %w", err)
	}
	defer rows.Close()

	out := []models.FilmCredit{}
	for rows.Next() {
		var credit models.FilmCredit
		var character sql.NullString
		var yearOrDate sql.NullString
		var posterPath sql.NullString
		if err := rows.Scan(&credit.TargetID, &credit.Title, &character, &yearOrDate, &posterPath); err != nil {
			return nil, fmt.Errorf("scan filmography row: %w", err)
		}
		credit.Character = character.String
		if yearOrDate.Valid {
			credit.YearOrDate = &yearOrDate.String
		}
		credit.PosterPath = posterPath.String
		out = append(out, credit)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var (
		m            models.Movie
		releaseYear  sql.NullInt64
		releaseDate  sql.NullString
		runtimeMin   sql.NullInt64
		overview     sql.NullString
		posterPath   sql.NullString
		backdropPath sql.NullString
		language     sql.NullString
		voteAvg      sql.NullFloat64
		popularity   sql.NullFloat64
	)
	err := row.Scan(
		&m.MovieID, &m.TmdbID, &m.Title, &releaseYear, &releaseDate, &runtimeMin,
		&overview, &posterPath, &backdropPath, &language, &voteAvg, &popularity,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan movie: %w", err)
	}
	if releaseYear.Valid {
		m.ReleaseYear = &releaseYear.Int64
	}
	if releaseDate.Valid {
		m.ReleaseDate = &releaseDate.String
	}
	if runtimeMin.Valid {
		m.RuntimeMin = &runtimeMin.Int64
	}
	m.Overview = overview.String
	m.PosterPath = posterPath.String
	m.BackdropPath = backdropPath.String
	m.OriginalLanguage = language.String
	if voteAvg.Valid {
		m.TmdbVoteAvg = &voteAvg.Float64
	}
	m.Popularity = popularity.Float64
	return &m, nil
}

func scanMovieDetail(row rowScanner) (*models.Movie, *float64, int, error) {
	var (
		m            models.Movie
		releaseYear  sql.NullInt64
		releaseDate  sql.NullString
		runtimeMin   sql.NullInt64
		overview     sql.NullString
		posterPath   sql.NullString
		backdropPath sql.NullString
		language     sql.NullString
		voteAvg      sql.NullFloat64
		popularity   sql.NullFloat64
		userAvg      sql.NullFloat64
		reviewCount  int
	)
	err := row.Scan(
		&m.MovieID, &m.TmdbID, &m.Title, &releaseYear, &releaseDate, &runtimeMin,
		&overview, &posterPath, &backdropPath, &language, &voteAvg, &popularity,
		&userAvg, &reviewCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, 0, nil
		}
		return nil, nil, 0, fmt.Errorf("scan movie detail: %w", err)
	}
	if releaseYear.Valid {
		m.ReleaseYear = &releaseYear.Int64
	}
	if releaseDate.Valid {
		m.ReleaseDate = &releaseDate.String
	}
	if runtimeMin.Valid {
		m.RuntimeMin = &runtimeMin.Int64
	}
	m.Overview = overview.String
	m.PosterPath = posterPath.String
	m.BackdropPath = backdropPath.String
	m.OriginalLanguage = language.String
	if voteAvg.Valid {
		m.TmdbVoteAvg = &voteAvg.Float64
	}
	m.Popularity = popularity.Float64

	var userAvgPtr *float64
	if userAvg.Valid {
		userAvgPtr = &userAvg.Float64
	}
	return &m, userAvgPtr, reviewCount, nil
}

func scanShow(row rowScanner) (*models.Show, error) {
	var (
		s            models.Show
		firstAir     sql.NullString
		lastAir      sql.NullString
		overview     sql.NullString
		posterPath   sql.NullString
		backdropPath sql.NullString
		language     sql.NullString
		voteAvg      sql.NullFloat64
		popularity   sql.NullFloat64
	)
	err := row.Scan(
		&s.ShowID, &s.TmdbID, &s.Title, &firstAir, &lastAir,
		&overview, &posterPath, &backdropPath, &language, &voteAvg, &popularity,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan show: %w", err)
	}
	if firstAir.Valid {
		s.FirstAirDate = &firstAir.String
	}
	if lastAir.Valid {
		s.LastAirDate = &lastAir.String
	}
	s.Overview = overview.String
	s.PosterPath = posterPath.String
	s.BackdropPath = backdropPath.String
	s.OriginalLanguage = language.String
	if voteAvg.Valid {
		s.TmdbVoteAvg = &voteAvg.Float64
	}
	s.Popularity = popularity.Float64
	return &s, nil
}
