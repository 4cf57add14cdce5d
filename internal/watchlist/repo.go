package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"movietracker/pkg/database"
	"movietracker/pkg/models"
)

var (
	ErrInvalidTarget = errors.New("target must reference exactly one movie or show")
	ErrNotFound      = errors.New("not found")
)

// List names one of the two user/title association tables. Both share the
// same shape and invariants, so one repo serves both.
type List string

const (
	Watchlist List = "watchlists"
	Favorites List = "favorites"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add inserts the (user, title) entry. Re-adding an existing entry is
// absorbed by the partial unique indexes, not duplicated.
func (r *Repo) Add(ctx context.Context, list List, userID int64, target models.MediaRef) error {
	if !target.Valid() {
		return ErrInvalidTarget
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT OR IGNORE INTO `+string(list)+` (user_id, movie_id, show_id)
		VALUES (?, ?, ?)
	`, userID, target.MovieID(), target.ShowID())
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("add %s entry: %w", list, err)
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, list List, userID int64, target models.MediaRef) (bool, error) {
	if !target.Valid() {
		return false, ErrInvalidTarget
	}

	column := "movie_id"
	if target.Type == models.MediaTypeShow {
		column = "show_id"
	}

	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM `+string(list)+`
		WHERE user_id = ? AND `+column+` = ?
	`, userID, target.ID)
	if err != nil {
		return false, fmt.Errorf("remove %s entry: %w", list, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListEntries returns a user's entries newest first, joined with the title
// and poster of whichever side of the xor is set.
func (r *Repo) ListEntries(ctx context.Context, list List, userID int64, limit, offset int) ([]models.ListEntry, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM `+string(list)+` WHERE user_id = ?
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", list, err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT w.user_id, w.movie_id, w.show_id, w.added_at,
		       COALESCE(m.title, s.title) AS title,
		       COALESCE(m.poster_path, s.poster_path) AS poster_path
		FROM `+string(list)+` w
		LEFT JOIN movies m ON m.movie_id = w.movie_id
		LEFT JOIN shows s ON s.show_id = w.show_id
		WHERE w.user_id = ?
		ORDER BY w.added_at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", list, err)
	}
	defer rows.Close()

	out := make([]models.ListEntry, 0, limit)
	for rows.Next() {
		var (
			entry      models.ListEntry
			movieID    sql.NullInt64
			showID     sql.NullInt64
			added      string
			title      sql.NullString
			posterPath sql.NullString
		)
		if err := rows.Scan(&entry.UserID, &movieID, &showID, &added, &title, &posterPath); err != nil {
			return nil, 0, fmt.Errorf("scan %s row: %w", list, err)
		}
		if movieID.Valid {
			entry.Target = models.MediaRef{Type: models.MediaTypeMovie, ID: movieID.Int64}
		} else {
			entry.Target = models.MediaRef{Type: models.MediaTypeShow, ID: showID.Int64}
		}
		entry.Title = title.String
		entry.PosterPath = posterPath.String
		if t, err := time.Parse("2006-01-02 15:04:05", added); err == nil {
			entry.AddedAt = t
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}
