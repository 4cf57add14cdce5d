package models

import "time"

type Discussion struct {
	DiscussionID int64     `json:"discussion_id"`
	UserID       int64     `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Target       MediaRef  `json:"target"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	CommentCount int       `json:"comment_count"`
	Comments     []Comment `json:"comments,omitempty"`
}

type Comment struct {
	CommentID    int64     `json:"comment_id"`
	DiscussionID int64     `json:"discussion_id"`
	UserID       int64     `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}
