package models

// MediaType discriminates the two kinds of catalog titles.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(s) {
	case MediaTypeMovie:
		return MediaTypeMovie, true
	case MediaTypeShow:
		return MediaTypeShow, true
	}
	return "", false
}

// MediaRef points at exactly one movie or one show. Reviews, discussions,
// watchlist and favorite entries all attach to a title through this tagged
// reference; the repos split it into the (movie_id, show_id) column pair and
// the schema's CHECK constraint backstops the xor at the storage layer.
type MediaRef struct {
	Type MediaType `json:"type"`
	ID   int64     `json:"id"`
}

func (r MediaRef) Valid() bool {
	if r.ID <= 0 {
		return false
	}
	return r.Type == MediaTypeMovie || r.Type == MediaTypeShow
}

// MovieID returns the value to bind into a movie_id column: the ID for movie
// refs, NULL otherwise.
func (r MediaRef) MovieID() any {
	if r.Type == MediaTypeMovie {
		return r.ID
	}
	return nil
}

// ShowID returns the value to bind into a show_id column.
func (r MediaRef) ShowID() any {
	if r.Type == MediaTypeShow {
		return r.ID
	}
	return nil
}
