package storage

import (
	"context"
	"fmt"
)

// Reference names a table/column pair the existence checker may query.
type Reference struct {
	Table  string
	Column string
}

var (
	TopicSlug = Reference{"topics", "slug"}
	UserName  = Reference{"users", "username"}
	ArticleID = Reference{"articles", "article_id"}
	CommentID = Reference{"comments", "comment_id"}
)

var allowedRefs = map[Reference]bool{TopicSlug: true, UserName: true, ArticleID: true, CommentID: true}

// Exists returns nil when at least one row of ref.Table has ref.Column equal
// to value, ErrNotFound when none does. Only allow-listed references are
// accepted since they are interpolated into the statement.
func (s *Store) Exists(ctx context.Context, ref Reference, value any) error {
	if !allowedRefs[ref] {
		return fmt.Errorf("%s.%s: %w", ref.Table, ref.Column, ErrUnknownReference)
	}

	var found int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", ref.Table, ref.Column)
	if err := s.q.GetContext(ctx, &found, s.rebind(query), value); err != nil {
		return fmt.Errorf("check %s.%s: %w", ref.Table, ref.Column, err)
	}
	if found == 0 {
		return fmt.Errorf("%s.%s = %v: %w", ref.Table, ref.Column, value, ErrNotFound)
	}
	return nil
}
