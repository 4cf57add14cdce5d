package models

// Movie is a catalog movie row sourced from the external provider.
// TmdbID is the idempotent upsert key; MovieID is ours and never changes.
type Movie struct {
	MovieID          int64    `json:"movie_id"`
	TmdbID           int64    `json:"tmdb_id"`
	Title            string   `json:"title"`
	ReleaseYear      *int64   `json:"release_year"`
	ReleaseDate      *string  `json:"release_date"`
	RuntimeMin       *int64   `json:"runtime_min"`
	Overview         string   `json:"overview,omitempty"`
	PosterPath       string   `json:"poster_path,omitempty"`
	BackdropPath     string   `json:"backdrop_path,omitempty"`
	OriginalLanguage string   `json:"original_language,omitempty"`
	TmdbVoteAvg      *float64 `json:"tmdb_vote_avg"`
	Popularity       float64  `json:"popularity"`
}

// MovieDetail is the assembled detail view: the row plus aggregates computed
// at call time and its ordered genre/cast attachments.
type MovieDetail struct {
	Movie
	UserVoteAvg *float64     `json:"user_vote_avg"`
	ReviewCount int          `json:"review_count"`
	Genres      []string     `json:"genres"`
	TopCast     []CastCredit `json:"top_cast"`
}

// CastCredit is one row of a cast junction joined with the person's name.
type CastCredit struct {
	PersonID  int64  `json:"person_id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	CastOrder int64  `json:"cast_order"`
}

// SearchResult is one hit of the combined movie+show title search.
type SearchResult struct {
	TargetType  MediaType `json:"target_type"`
	TargetID    int64     `json:"target_id"`
	Title       string    `json:"title"`
	TmdbVoteAvg *float64  `json:"tmdb_vote_avg"`
	YearOrDate  *string   `json:"year_or_date"`
}
