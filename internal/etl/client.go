package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client is a thin TMDb API client with bounded retry. Every request
// carries the api_key query parameter; transient failures back off
// exponentially before giving up.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTP       *http.Client
	MaxRetries int
	RetryDelay time.Duration

	calls atomic.Int64
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		HTTP:       &http.Client{Timeout: 20 * time.Second},
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Calls reports how many HTTP requests have been issued, retries included.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.APIKey)
	endpoint := c.BaseURL + path + "?" + query.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.RetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request %s: %w", path, err)
		}

		c.calls.Add(1)
		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("decode %s: %w", path, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("GET %s after %d attempts: %w", path, c.MaxRetries+1, lastErr)
}

type GenrePayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type genreListResponse struct {
	Genres []GenrePayload `json:"genres"`
}

type PagedResponse struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Results    []struct {
		ID int64 `json:"id"`
	} `json:"results"`
}

type CastPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int64  `json:"order"`
	ProfilePath string `json:"profile_path"`
	Roles       []struct {
		Character string `json:"character"`
	} `json:"roles"`
}

// CharacterName resolves the credited role: movie credits carry it
// directly, aggregate TV credits nest it under roles.
func (c CastPayload) CharacterName() string {
	if c.Character != "" {
		return c.Character
	}
	if len(c.Roles) > 0 {
		return c.Roles[0].Character
	}
	return ""
}

type MovieDetailPayload struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	ReleaseDate      string         `json:"release_date"`
	Runtime          int64          `json:"runtime"`
	Overview         string         `json:"overview"`
	PosterPath       string         `json:"poster_path"`
	BackdropPath     string         `json:"backdrop_path"`
	OriginalLanguage string         `json:"original_language"`
	VoteAverage      float64        `json:"vote_average"`
	VoteCount        int64          `json:"vote_count"`
	Popularity       float64        `json:"popularity"`
	Genres           []GenrePayload `json:"genres"`
	Credits          struct {
		Cast []CastPayload `json:"cast"`
	} `json:"credits"`
}

type TVDetailPayload struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	FirstAirDate     string         `json:"first_air_date"`
	LastAirDate      string         `json:"last_air_date"`
	Overview         string         `json:"overview"`
	PosterPath       string         `json:"poster_path"`
	BackdropPath     string         `json:"backdrop_path"`
	OriginalLanguage string         `json:"original_language"`
	VoteAverage      float64        `json:"vote_average"`
	VoteCount        int64          `json:"vote_count"`
	Popularity       float64        `json:"popularity"`
	Genres           []GenrePayload `json:"genres"`
	Seasons          []struct {
		SeasonNumber int64  `json:"season_number"`
		Name         string `json:"name"`
		AirDate      string `json:"air_date"`
	} `json:"seasons"`
	AggregateCredits struct {
		Cast []CastPayload `json:"cast"`
	} `json:"aggregate_credits"`
}

type SeasonPayload struct {
	SeasonNumber int64  `json:"season_number"`
	Name         string `json:"name"`
	AirDate      string `json:"air_date"`
	Episodes     []struct {
		EpisodeNumber int64  `json:"episode_number"`
		Name          string `json:"name"`
		AirDate       string `json:"air_date"`
		Runtime       int64  `json:"runtime"`
	} `json:"episodes"`
}

type PersonDetailPayload struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ProfilePath  string `json:"profile_path"`
	Birthday     string `json:"birthday"`
	Deathday     string `json:"deathday"`
	PlaceOfBirth string `json:"place_of_birth"`
	Biography    string `json:"biography"`
	ExternalIDs  struct {
		ImdbID      string `json:"imdb_id"`
		InstagramID string `json:"instagram_id"`
		TwitterID   string `json:"twitter_id"`
		FacebookID  string `json:"facebook_id"`
	} `json:"external_ids"`
}

func (c *Client) MovieGenres(ctx context.Context) ([]GenrePayload, error) {
	var resp genreListResponse
	if err := c.get(ctx, "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

func (c *Client) TVGenres(ctx context.Context) ([]GenrePayload, error) {
	var resp genreListResponse
	if err := c.get(ctx, "/genre/tv/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

func (c *Client) PopularMovies(ctx context.Context, page int) (*PagedResponse, error) {
	var resp PagedResponse
	q := url.Values{"page": {fmt.Sprint(page)}}
	if err := c.get(ctx, "/movie/popular", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PopularTV(ctx context.Context, page int) (*PagedResponse, error) {
	var resp PagedResponse
	q := url.Values{"page": {fmt.Sprint(page)}}
	if err := c.get(ctx, "/tv/popular", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) MovieDetail(ctx context.Context, id int64) (*MovieDetailPayload, error) {
	var resp MovieDetailPayload
	q := url.Values{"append_to_response": {"credits"}}
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) TVDetail(ctx context.Context, id int64) (*TVDetailPayload, error) {
	var resp TVDetailPayload
	q := url.Values{"append_to_response": {"aggregate_credits"}}
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", id), q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Season(ctx context.Context, tvID, seasonNumber int64) (*SeasonPayload, error) {
	var resp SeasonPayload
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", tvID, seasonNumber), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PersonDetail(ctx context.Context, id int64) (*PersonDetailPayload, error) {
	var resp PersonDetailPayload
	q := url.Values{"append_to_response": {"external_ids"}}
	if err := c.get(ctx, fmt.Sprintf("/person/%d", id), q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
