package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"movietracker/pkg/database"
	"movietracker/pkg/models"
)

var (
	ErrInvalidTarget   = errors.New("target must reference exactly one movie or show")
	ErrInvalidRating   = errors.New("rating must be between 0 and 10")
	ErrInvalidReaction = errors.New("unknown reaction kind")
	ErrDuplicate       = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, userID int64, target models.MediaRef, rating float64, content string) (*models.Review, error) {
	if !target.Valid() {
		return nil, ErrInvalidTarget
	}
	if rating < 0 || rating > 10 {
		return nil, ErrInvalidRating
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (user_id, movie_id, show_id, rating, content)
		VALUES (?, ?, ?, ?, ?)
	`, userID, target.MovieID(), target.ShowID(), rating, nullableText(content))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT review_id, user_id, movie_id, show_id, rating, content, created_at
		FROM reviews
		WHERE review_id = ?
	`, id)

	review, err := scanReview(row)
	if err != nil || review == nil {
		return review, err
	}

	counts, err := r.reactionCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(counts) > 0 {
		review.Reactions = counts
	}
	return review, nil
}

// ListForTarget returns a title's reviews newest first, each with its
// per-kind reaction tallies.
func (r *Repo) ListForTarget(ctx context.Context, target models.MediaRef, limit, offset int) ([]models.Review, error) {
	if !target.Valid() {
		return nil, ErrInvalidTarget
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	column := "movie_id"
	if target.Type == models.MediaTypeShow {
		column = "show_id"
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT review_id, user_id, movie_id, show_id, rating, content, created_at
		FROM reviews
		WHERE `+column+` = ?
		ORDER BY created_at DESC, review_id DESC
		LIMIT ? OFFSET ?
	`, target.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]models.Review, 0, limit)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	for i := range out {
		counts, err := r.reactionCounts(ctx, out[i].ReviewID)
		if err != nil {
			return nil, err
		}
		if len(counts) > 0 {
			out[i].Reactions = counts
		}
	}
	return out, nil
}

// Update changes the rating/content of the caller's own review.
func (r *Repo) Update(ctx context.Context, id, userID int64, rating float64, content string) (*models.Review, error) {
	if rating < 0 || rating > 10 {
		return nil, ErrInvalidRating
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE reviews
		SET rating = ?, content = ?
		WHERE review_id = ? AND user_id = ?
	`, rating, nullableText(content), id, userID)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM reviews
		WHERE review_id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// AddReaction records (review, user, kind). The same user may react to a
// review with several distinct kinds but never the same kind twice.
func (r *Repo) AddReaction(ctx context.Context, reviewID, userID int64, kind string) error {
	if !models.ValidReactionKind(kind) {
		return ErrInvalidReaction
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO review_reactions (review_id, user_id, emote_type)
		VALUES (?, ?, ?)
	`, reviewID, userID, kind)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert reaction: %w", err)
	}
	return nil
}

func (r *Repo) RemoveReaction(ctx context.Context, reviewID, userID int64, kind string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM review_reactions
		WHERE review_id = ? AND user_id = ? AND emote_type = ?
	`, reviewID, userID, kind)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (r *Repo) reactionCounts(ctx context.Context, reviewID int64) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT emote_type, COUNT(*)
		FROM review_reactions
		WHERE review_id = ?
		GROUP BY emote_type
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("reaction counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan reaction count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*models.Review, error) {
	var (
		review  models.Review
		movieID sql.NullInt64
		showID  sql.NullInt64
		content sql.NullString
		created string
	)
	if err := row.Scan(&review.ReviewID, &review.UserID, &movieID, &showID,
		&review.Rating, &content, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	if movieID.Valid {
		review.Target = models.MediaRef{Type: models.MediaTypeMovie, ID: movieID.Int64}
	} else {
		review.Target = models.MediaRef{Type: models.MediaTypeShow, ID: showID.Int64}
	}
	review.Content = content.String
	review.CreatedAt = parseTimestamp(created)
	return &review, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullableText(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
