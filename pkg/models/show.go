package models

type Show struct {
	ShowID           int64    `json:"show_id"`
	TmdbID           int64    `json:"tmdb_id"`
	Title            string   `json:"title"`
	FirstAirDate     *string  `json:"first_air_date"`
	LastAirDate      *string  `json:"last_air_date"`
	Overview         string   `json:"overview,omitempty"`
	PosterPath       string   `json:"poster_path,omitempty"`
	BackdropPath     string   `json:"backdrop_path,omitempty"`
	OriginalLanguage string   `json:"original_language,omitempty"`
	TmdbVoteAvg      *float64 `json:"tmdb_vote_avg"`
	Popularity       float64  `json:"popularity"`
}

type ShowDetail struct {
	Show
	UserVoteAvg *float64     `json:"user_vote_avg"`
	ReviewCount int          `json:"review_count"`
	SeasonCount int          `json:"season_count"`
	Genres      []string     `json:"genres"`
	TopCast     []CastCredit `json:"top_cast"`
}

// Season cannot exist without its show; deleting the show cascades here and
// on through the episodes.
type Season struct {
	SeasonID     int64     `json:"season_id"`
	ShowID       int64     `json:"show_id"`
	SeasonNumber int64     `json:"season_number"`
	Title        string    `json:"title,omitempty"`
	AirDate      *string   `json:"air_date"`
	Episodes     []Episode `json:"episodes"`
}

type Episode struct {
	EpisodeID     int64   `json:"episode_id"`
	EpisodeNumber int64   `json:"episode_number"`
	Title         string  `json:"title,omitempty"`
	AirDate       *string `json:"air_date"`
	RuntimeMin    *int64  `json:"runtime_min"`
}

type Genre struct {
	GenreID     int64  `json:"genre_id"`
	TmdbGenreID int64  `json:"tmdb_genre_id"`
	Name        string `json:"name"`
}
