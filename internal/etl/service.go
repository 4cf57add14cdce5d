package etl

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Config bounds what one sync run ingests from the upstream API.
type Config struct {
	Movies            int
	Shows             int
	EpisodesPerSeason int
	MaxCast           int
	MinVoteCount      int64
	MinPopularity     float64
}

func DefaultConfig() Config {
	return Config{
		Movies:            50,
		Shows:             25,
		EpisodesPerSeason: 10,
		MaxCast:           10,
		MinVoteCount:      20,
		MinPopularity:     1.0,
	}
}

type Stats struct {
	RunID           string
	MoviesProcessed int
	MoviesUpserted  int
	MoviesSkipped   int
	ShowsProcessed  int
	ShowsUpserted   int
	ShowsSkipped    int
	GenresSynced    int
	PeopleSynced    int
	APICalls        int64
	Errors          int
}

// Service drives one catalog sync: genres first, then popular movies and
// shows page by page. A single bad title is logged and skipped, never
// fatal for the batch.
type Service struct {
	DB     *sql.DB
	Client *Client
	Cfg    Config

	// personCache maps tmdb person id to local person_id so a person
	// credited on many titles is fetched from the API only once per run.
	personCache map[int64]int64
}

func NewService(db *sql.DB, client *Client, cfg Config) *Service {
	return &Service{
		DB:          db,
		Client:      client,
		Cfg:         cfg,
		personCache: make(map[int64]int64),
	}
}

func (s *Service) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{RunID: uuid.NewString()}
	started := time.Now().UTC()

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO etl_runs (run_id, started_at) VALUES (?, ?)
	`, stats.RunID, started.Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("begin run record: %w", err)
	}

	runErr := s.run(ctx, stats)
	stats.APICalls = s.Client.Calls()

	status := "completed"
	if runErr != nil {
		status = "failed"
	}
	_, err = s.DB.ExecContext(ctx, `
		UPDATE etl_runs SET
			finished_at      = ?,
			status           = ?,
			movies_processed = ?, movies_upserted = ?, movies_skipped = ?,
			shows_processed  = ?, shows_upserted = ?, shows_skipped = ?,
			genres_synced    = ?, people_synced = ?,
			api_calls        = ?, errors = ?
		WHERE run_id = ?
	`, time.Now().UTC().Format("2006-01-02 15:04:05"), status,
		stats.MoviesProcessed, stats.MoviesUpserted, stats.MoviesSkipped,
		stats.ShowsProcessed, stats.ShowsUpserted, stats.ShowsSkipped,
		stats.GenresSynced, stats.PeopleSynced,
		stats.APICalls, stats.Errors, stats.RunID)
	if err != nil {
		log.Printf("etl: finish run record: %v", err)
	}

	return stats, runErr
}

func (s *Service) run(ctx context.Context, stats *Stats) error {
	if err := s.SyncGenres(ctx, stats); err != nil {
		return err
	}
	if err := s.ProcessMovies(ctx, stats); err != nil {
		return err
	}
	return s.ProcessShows(ctx, stats)
}

// SyncGenres refreshes the genre table from both the movie and TV genre
// lists. TMDb reuses ids across the two lists, so the union is keyed on
// tmdb_genre_id.
func (s *Service) SyncGenres(ctx context.Context, stats *Stats) error {
	movieGenres, err := s.Client.MovieGenres(ctx)
	if err != nil {
		return fmt.Errorf("fetch movie genres: %w", err)
	}
	tvGenres, err := s.Client.TVGenres(ctx)
	if err != nil {
		return fmt.Errorf("fetch tv genres: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin genre tx: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[int64]bool)
	for _, g := range append(movieGenres, tvGenres...) {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		if err := UpsertGenre(tx, g.ID, g.Name); err != nil {
			return err
		}
		stats.GenresSynced++
	}
	return tx.Commit()
}

func (s *Service) ProcessMovies(ctx context.Context, stats *Stats) error {
	ids, err := s.collectPopular(ctx, s.Cfg.Movies, s.Client.PopularMovies)
	if err != nil {
		return fmt.Errorf("list popular movies: %w", err)
	}

	for _, id := range ids {
		stats.MoviesProcessed++
		if err := s.processMovie(ctx, id, stats); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("etl: movie %d: %v", id, err)
			stats.Errors++
		}
	}
	return nil
}

func (s *Service) ProcessShows(ctx context.Context, stats *Stats) error {
	ids, err := s.collectPopular(ctx, s.Cfg.Shows, s.Client.PopularTV)
	if err != nil {
		return fmt.Errorf("list popular shows: %w", err)
	}

	for _, id := range ids {
		stats.ShowsProcessed++
		if err := s.processShow(ctx, id, stats); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("etl: show %d: %v", id, err)
			stats.Errors++
		}
	}
	return nil
}

func (s *Service) collectPopular(ctx context.Context, want int, fetch func(context.Context, int) (*PagedResponse, error)) ([]int64, error) {
	var ids []int64
	for page := 1; len(ids) < want; page++ {
		resp, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			ids = append(ids, r.ID)
			if len(ids) == want {
				break
			}
		}
		if page >= resp.TotalPages || len(resp.Results) == 0 {
			break
		}
	}
	return ids, nil
}

func (s *Service) processMovie(ctx context.Context, tmdbID int64, stats *Stats) error {
	detail, err := s.Client.MovieDetail(ctx, tmdbID)
	if err != nil {
		return err
	}
	if detail.VoteCount < s.Cfg.MinVoteCount || detail.Popularity < s.Cfg.MinPopularity {
		stats.MoviesSkipped++
		return nil
	}

	cast := detail.Credits.Cast
	if len(cast) > s.Cfg.MaxCast {
		cast = cast[:s.Cfg.MaxCast]
	}

	// Person fetches happen before the transaction opens so slow API
	// calls never hold a write lock.
	persons, err := s.resolvePersons(ctx, cast, stats)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin movie tx: %w", err)
	}
	defer tx.Rollback()

	movieID, err := UpsertMovie(tx, MovieRecord{
		TmdbID:           detail.ID,
		Title:            detail.Title,
		ReleaseDate:      detail.ReleaseDate,
		RuntimeMin:       detail.Runtime,
		Overview:         detail.Overview,
		PosterPath:       detail.PosterPath,
		BackdropPath:     detail.BackdropPath,
		OriginalLanguage: detail.OriginalLanguage,
		VoteAvg:          detail.VoteAverage,
		Popularity:       detail.Popularity,
	})
	if err != nil {
		return err
	}
	for _, g := range detail.Genres {
		if err := LinkMovieGenre(tx, movieID, g.ID); err != nil {
			return err
		}
	}
	for _, member := range cast {
		personID, ok := persons[member.ID]
		if !ok {
			continue
		}
		if err := AttachMovieCast(tx, movieID, personID, member.CharacterName(), member.Order); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit movie %d: %w", tmdbID, err)
	}
	stats.MoviesUpserted++
	return nil
}

func (s *Service) processShow(ctx context.Context, tmdbID int64, stats *Stats) error {
	detail, err := s.Client.TVDetail(ctx, tmdbID)
	if err != nil {
		return err
	}
	if detail.VoteCount < s.Cfg.MinVoteCount || detail.Popularity < s.Cfg.MinPopularity {
		stats.ShowsSkipped++
		return nil
	}

	cast := detail.AggregateCredits.Cast
	if len(cast) > s.Cfg.MaxCast {
		cast = cast[:s.Cfg.MaxCast]
	}
	persons, err := s.resolvePersons(ctx, cast, stats)
	if err != nil {
		return err
	}

	// Season zero holds specials; skip it like the list pages do.
	var seasons []*SeasonPayload
	for _, info := range detail.Seasons {
		if info.SeasonNumber == 0 {
			continue
		}
		season, err := s.Client.Season(ctx, tmdbID, info.SeasonNumber)
		if err != nil {
			log.Printf("etl: show %d season %d: %v", tmdbID, info.SeasonNumber, err)
			stats.Errors++
			continue
		}
		seasons = append(seasons, season)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin show tx: %w", err)
	}
	defer tx.Rollback()

	showID, err := UpsertShow(tx, ShowRecord{
		TmdbID:           detail.ID,
		Title:            detail.Name,
		FirstAirDate:     detail.FirstAirDate,
		LastAirDate:      detail.LastAirDate,
		Overview:         detail.Overview,
		PosterPath:       detail.PosterPath,
		BackdropPath:     detail.BackdropPath,
		OriginalLanguage: detail.OriginalLanguage,
		VoteAvg:          detail.VoteAverage,
		Popularity:       detail.Popularity,
	})
	if err != nil {
		return err
	}
	for _, g := range detail.Genres {
		if err := LinkShowGenre(tx, showID, g.ID); err != nil {
			return err
		}
	}
	for _, member := range cast {
		personID, ok := persons[member.ID]
		if !ok {
			continue
		}
		if err := AttachShowCast(tx, showID, personID, member.CharacterName(), member.Order); err != nil {
			return err
		}
	}

	for _, season := range seasons {
		seasonID, err := UpsertSeason(tx, showID, season.SeasonNumber, season.Name, season.AirDate)
		if err != nil {
			return err
		}
		episodes := season.Episodes
		if len(episodes) > s.Cfg.EpisodesPerSeason {
			episodes = episodes[:s.Cfg.EpisodesPerSeason]
		}
		for _, ep := range episodes {
			if err := UpsertEpisode(tx, seasonID, ep.EpisodeNumber, ep.Name, ep.AirDate, ep.Runtime); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit show %d: %w", tmdbID, err)
	}
	stats.ShowsUpserted++
	return nil
}

// resolvePersons upserts every credited person and returns tmdb person id
// to local person_id. A failed person fetch drops that credit only.
func (s *Service) resolvePersons(ctx context.Context, cast []CastPayload, stats *Stats) (map[int64]int64, error) {
	out := make(map[int64]int64, len(cast))
	for _, member := range cast {
		if id, ok := s.personCache[member.ID]; ok {
			out[member.ID] = id
			continue
		}

		detail, err := s.Client.PersonDetail(ctx, member.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("etl: person %d: %v", member.ID, err)
			stats.Errors++
			continue
		}

		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin person tx: %w", err)
		}
		personID, err := UpsertPerson(tx, PersonRecord{
			TmdbPersonID: detail.ID,
			Name:         detail.Name,
			ProfilePath:  detail.ProfilePath,
			Birthday:     detail.Birthday,
			Deathday:     detail.Deathday,
			PlaceOfBirth: detail.PlaceOfBirth,
			Biography:    detail.Biography,
			ImdbID:       detail.ExternalIDs.ImdbID,
			InstagramID:  detail.ExternalIDs.InstagramID,
			TwitterID:    detail.ExternalIDs.TwitterID,
			FacebookID:   detail.ExternalIDs.FacebookID,
		})
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit person %d: %w", detail.ID, err)
		}

		s.personCache[member.ID] = personID
		out[member.ID] = personID
		stats.PeopleSynced++
	}
	return out, nil
}
