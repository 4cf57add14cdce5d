package models

type Person struct {
	PersonID     int64   `json:"person_id"`
	TmdbPersonID int64   `json:"tmdb_person_id"`
	Name         string  `json:"name"`
	ProfilePath  string  `json:"profile_path,omitempty"`
	Birthday     *string `json:"birthday"`
	Deathday     *string `json:"deathday"`
	PlaceOfBirth string  `json:"place_of_birth,omitempty"`
	Biography    string  `json:"biography,omitempty"`
}

// PersonDetail adds the constructed social-link map and the two ordered
// filmography lists to the identity fields.
type PersonDetail struct {
	Person
	SocialLinks  map[string]string `json:"social_links"`
	MovieCredits []FilmCredit      `json:"movie_credits"`
	ShowCredits  []FilmCredit      `json:"show_credits"`
}

// FilmCredit is one filmography entry: the title the person appeared in and
// the role they played there.
type FilmCredit struct {
	TargetID   int64   `json:"target_id"`
	Title      string  `json:"title"`
	Character  string  `json:"character,omitempty"`
	YearOrDate *string `json:"year_or_date"`
	PosterPath string  `json:"poster_path,omitempty"`
}
