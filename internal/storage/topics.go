package storage

import (
	"context"
	"fmt"
)

// ListTopics returns every topic ordered by slug.
func (s *Store) ListTopics(ctx context.Context) ([]Topic, error) {
	topics := []Topic{}
	if err := s.q.SelectContext(ctx, &topics,
		"SELECT slug, description FROM topics ORDER BY slug"); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// InsertTopic adds a topic. A duplicate slug surfaces as the driver's unique violation.
func (s *Store) InsertTopic(ctx context.Context, t Topic) (*Topic, error) {
	var out Topic
	err := s.q.QueryRowxContext(ctx, s.rebind(
		`INSERT INTO topics (slug, description) VALUES (?, ?)
		 RETURNING slug, description`),
		t.Slug, t.Description,
	).StructScan(&out)
	if err != nil {
		return nil, fmt.Errorf("insert topic %q: %w", t.Slug, err)
	}
	return &out, nil
}
