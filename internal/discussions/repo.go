package discussions

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

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, userID int64, target models.MediaRef, title string) (*models.Discussion, error) {
	if !target.Valid() {
		return nil, ErrInvalidTarget
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO discussions (user_id, movie_id, show_id, title)
		VALUES (?, ?, ?, ?)
	`, userID, target.MovieID(), target.ShowID(), title)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create discussion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("discussion id: %w", err)
	}
	return r.Get(ctx, id)
}

// Get loads a discussion plus its comments oldest first.
func (r *Repo) Get(ctx context.Context, id int64) (*models.Discussion, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT d.discussion_id, d.user_id, u.display_name, d.movie_id, d.show_id, d.title, d.created_at,
		       (SELECT COUNT(*) FROM comments c WHERE c.discussion_id = d.discussion_id) AS comment_count
		FROM discussions d
		JOIN users u ON u.user_id = d.user_id
		WHERE d.discussion_id = ?
	`, id)

	disc, err := scanDiscussion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get discussion: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.comment_id, c.discussion_id, c.user_id, u.display_name, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.user_id = c.user_id
		WHERE c.discussion_id = ?
		ORDER BY c.created_at ASC, c.comment_id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cm      models.Comment
			created string
		)
		if err := rows.Scan(&cm.CommentID, &cm.DiscussionID, &cm.UserID, &cm.DisplayName, &cm.Content, &created); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		cm.CreatedAt = parseTimestamp(created)
		disc.Comments = append(disc.Comments, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return disc, nil
}

// ListForTarget returns discussions for a title, newest first, with comment
// counts but without the comment bodies.
func (r *Repo) ListForTarget(ctx context.Context, target models.MediaRef) ([]models.Discussion, error) {
	if !target.Valid() {
		return nil, ErrInvalidTarget
	}

	column := "movie_id"
	if target.Type == models.MediaTypeShow {
		column = "show_id"
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.discussion_id, d.user_id, u.display_name, d.movie_id, d.show_id, d.title, d.created_at,
		       (SELECT COUNT(*) FROM comments c WHERE c.discussion_id = d.discussion_id) AS comment_count
		FROM discussions d
		JOIN users u ON u.user_id = d.user_id
		WHERE d.`+column+` = ?
		ORDER BY d.created_at DESC, d.discussion_id DESC
	`, target.ID)
	if err != nil {
		return nil, fmt.Errorf("list discussions: %w", err)
	}
	defer rows.Close()

	return collectDiscussions(rows)
}

// MostDiscussed ranks discussions across the whole catalog by comment count.
func (r *Repo) MostDiscussed(ctx context.Context, limit int) ([]models.Discussion, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.discussion_id, d.user_id, u.display_name, d.movie_id, d.show_id, d.title, d.created_at,
		       COUNT(c.comment_id) AS comment_count
		FROM discussions d
		JOIN users u ON u.user_id = d.user_id
		LEFT JOIN comments c ON c.discussion_id = d.discussion_id
		GROUP BY d.discussion_id
		ORDER BY comment_count DESC, d.created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("most discussed: %w", err)
	}
	defer rows.Close()

	return collectDiscussions(rows)
}

func (r *Repo) AddComment(ctx context.Context, discussionID, userID int64, content string) (*models.Comment, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO comments (discussion_id, user_id, content)
		VALUES (?, ?, ?)
	`, discussionID, userID, content)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("add comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("comment id: %w", err)
	}

	var (
		cm      models.Comment
		created string
	)
	err = r.DB.QueryRowContext(ctx, `
		SELECT c.comment_id, c.discussion_id, c.user_id, u.display_name, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.user_id = c.user_id
		WHERE c.comment_id = ?
	`, id).Scan(&cm.CommentID, &cm.DiscussionID, &cm.UserID, &cm.DisplayName, &cm.Content, &created)
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	cm.CreatedAt = parseTimestamp(created)
	return &cm, nil
}

// DeleteComment removes a comment only when it belongs to the caller.
func (r *Repo) DeleteComment(ctx context.Context, commentID, userID int64) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM comments WHERE comment_id = ? AND user_id = ?
	`, commentID, userID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiscussion(row rowScanner) (*models.Discussion, error) {
	var (
		d       models.Discussion
		movieID sql.NullInt64
		showID  sql.NullInt64
		created string
	)
	err := row.Scan(&d.DiscussionID, &d.UserID, &d.DisplayName, &movieID, &showID, &d.Title, &created, &d.CommentCount)
	if err != nil {
		return nil, err
	}
	if movieID.Valid {
		d.Target = models.MediaRef{Type: models.MediaTypeMovie, ID: movieID.Int64}
	} else if showID.Valid {
		d.Target = models.MediaRef{Type: models.MediaTypeShow, ID: showID.Int64}
	}
	d.CreatedAt = parseTimestamp(created)
	return &d, nil
}

func collectDiscussions(rows *sql.Rows) ([]models.Discussion, error) {
	out := []models.Discussion{}
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discussion: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func parseTimestamp(raw string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, raw)
	return t
}
