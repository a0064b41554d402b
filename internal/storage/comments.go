package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const commentColumns = "comment_id, body, article_id, author, votes, created_at"

// ListComments returns one page of an article's comments, newest first.
func (s *Store) ListComments(ctx context.Context, articleID int64, limit, offset int) ([]Comment, error) {
	comments := []Comment{}
	err := s.q.SelectContext(ctx, &comments, s.rebind(
		`SELECT `+commentColumns+`
		 FROM comments
		 WHERE article_id = ?
		 ORDER BY created_at DESC, comment_id DESC
		 LIMIT ? OFFSET ?`),
		articleID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments for article %d: %w", articleID, err)
	}
	return comments, nil
}

// GetComment fetches one comment by id.
func (s *Store) GetComment(ctx context.Context, commentID int64) (*Comment, error) {
	var c Comment
	err := s.q.GetContext(ctx, &c, s.rebind(
		"SELECT "+commentColumns+" FROM comments WHERE comment_id = ?"), commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", commentID, err)
	}
	return &c, nil
}

// InsertComment adds a comment and returns the stored row.
func (s *Store) InsertComment(ctx context.Context, c NewComment) (*Comment, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	var id int64
	err := s.q.QueryRowxContext(ctx, s.rebind(
		`INSERT INTO comments (body, article_id, author, votes, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING comment_id`),
		c.Body, c.ArticleID, c.Author, c.Votes, c.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return s.GetComment(ctx, id)
}

// IncrementCommentVotes adds delta to the comment's votes and returns the updated row.
func (s *Store) IncrementCommentVotes(ctx context.Context, commentID int64, delta int) (*Comment, error) {
	var id int64
	err := s.q.QueryRowxContext(ctx, s.rebind(
		`UPDATE comments SET votes = votes + ? WHERE comment_id = ?
		 RETURNING comment_id`),
		delta, commentID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("increment comment %d votes: %w", commentID, err)
	}
	return s.GetComment(ctx, id)
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, commentID int64) error {
	res, err := s.q.ExecContext(ctx, s.rebind(
		"DELETE FROM comments WHERE comment_id = ?"), commentID)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	return affectedOne(res, fmt.Sprintf("delete comment %d", commentID))
}
