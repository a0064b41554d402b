package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/matthewjhunter/newsdesk/internal/apperr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// populate inserts two topics, two users and three articles; article 1 gets two comments.
func populate(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	for _, topic := range []Topic{{"mitch", "The man"}, {"cats", "Not dogs"}} {
		if _, err := store.InsertTopic(ctx, topic); err != nil {
			t.Fatalf("InsertTopic failed: %v", err)
		}
	}
	for _, u := range []User{{"butter_bridge", "jonny", ""}, {"rogersop", "paul", ""}} {
		if err := store.InsertUser(ctx, u); err != nil {
			t.Fatalf("InsertUser failed: %v", err)
		}
	}

	base := time.Date(2020, 7, 9, 20, 11, 0, 0, time.UTC)
	articles := []NewArticle{
		{Title: "First", Topic: "mitch", Author: "butter_bridge", Body: "one", Votes: 100, CreatedAt: base},
		{Title: "Second", Topic: "mitch", Author: "rogersop", Body: "two", CreatedAt: base.Add(time.Hour)},
		{Title: "Third", Topic: "cats", Author: "rogersop", Body: "three", CreatedAt: base.Add(time.Hour)},
	}
	for _, a := range articles {
		if _, err := store.InsertArticle(ctx, a); err != nil {
			t.Fatalf("InsertArticle failed: %v", err)
		}
	}
	for i := range 2 {
		_, err := store.InsertComment(ctx, NewComment{
			ArticleID: 1,
			Author:    "rogersop",
			Body:      "comment",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertComment failed: %v", err)
		}
	}
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)
	if store.db == nil {
		t.Fatal("Database connection is nil")
	}
	if store.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", store.Driver(), DriverSQLite)
	}
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewStore(context.Background(), DatabaseConfig{Driver: "oracle", URL: "x"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	_, err = NewStore(context.Background(), DatabaseConfig{Driver: DriverPostgres})
	if err == nil {
		t.Fatal("expected error for empty postgres url")
	}
}

func TestTopics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	topics, err := store.ListTopics(ctx)
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	if topics == nil || len(topics) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", topics)
	}

	got, err := store.InsertTopic(ctx, Topic{Slug: "paper", Description: "what books are made of"})
	if err != nil {
		t.Fatalf("InsertTopic failed: %v", err)
	}
	if got.Slug != "paper" || got.Description != "what books are made of" {
		t.Errorf("InsertTopic returned %+v", got)
	}

	_, err = store.InsertTopic(ctx, Topic{Slug: "paper"})
	if err == nil {
		t.Fatal("expected duplicate slug to fail")
	}
	if code := apperr.FromDB(err).Code; code != apperr.BadRequest {
		t.Errorf("duplicate slug classified as %s, want %s", code, apperr.BadRequest)
	}
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].Username != "butter_bridge" {
		t.Fatalf("unexpected users: %+v", users)
	}

	u, err := store.GetUser(ctx, "rogersop")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.Name != "paul" {
		t.Errorf("Name = %q, want paul", u.Name)
	}

	if _, err := store.GetUser(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser(nobody) error = %v, want ErrNotFound", err)
	}
}

func TestExists(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	if err := store.Exists(ctx, TopicSlug, "cats"); err != nil {
		t.Errorf("Exists(cats) = %v", err)
	}
	if err := store.Exists(ctx, ArticleID, 3); err != nil {
		t.Errorf("Exists(article 3) = %v", err)
	}
	if err := store.Exists(ctx, UserName, "lurker"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Exists(lurker) = %v, want ErrNotFound", err)
	}
	if err := store.Exists(ctx, Reference{"users", "name; DROP TABLE users"}, "x"); !errors.Is(err, ErrUnknownReference) {
		t.Errorf("Exists(bad ref) = %v, want ErrUnknownReference", err)
	}
}

func TestGetArticle(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	a, err := store.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if a.Title != "First" || a.Votes != 100 || a.CommentCount != 2 {
		t.Errorf("unexpected article: %+v", a)
	}
	if a.ArticleImgURL != DefaultArticleImgURL {
		t.Errorf("ArticleImgURL = %q, want default", a.ArticleImgURL)
	}
	if !a.CreatedAt.Equal(time.Date(2020, 7, 9, 20, 11, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", a.CreatedAt)
	}

	if _, err := store.GetArticle(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetArticle(999) error = %v, want ErrNotFound", err)
	}
}

func TestInsertArticleUnknownAuthor(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)

	_, err := store.InsertArticle(context.Background(), NewArticle{
		Title: "x", Topic: "mitch", Author: "ghost", Body: "y",
	})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
	if code := apperr.FromDB(err).Code; code != apperr.NotFound {
		t.Errorf("foreign key violation classified as %s, want %s", code, apperr.NotFound)
	}
}

func TestIncrementArticleVotes(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	if err := store.IncrementArticleVotes(ctx, 1, -150); err != nil {
		t.Fatalf("IncrementArticleVotes failed: %v", err)
	}
	a, err := store.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if a.Votes != -50 {
		t.Errorf("Votes = %d, want -50", a.Votes)
	}

	if err := store.IncrementArticleVotes(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("IncrementArticleVotes(999) error = %v, want ErrNotFound", err)
	}
}

func TestIncrementVotesOverflowLeavesRowIntact(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	err := store.IncrementArticleVotes(ctx, 1, math.MaxInt64)
	if err == nil {
		t.Fatal("expected overflowing increment to fail")
	}
	if code := apperr.FromDB(err).Code; code != apperr.BadRequest {
		t.Errorf("overflow classified as %s, want %s", code, apperr.BadRequest)
	}
	if err := store.IncrementArticleVotes(ctx, 1, math.MaxInt32); err == nil {
		t.Error("expected increment past the int4 range to fail")
	}
	if _, err := store.IncrementCommentVotes(ctx, 1, math.MinInt32-1); err == nil {
		t.Error("expected comment increment below the int4 range to fail")
	}

	a, err := store.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle after overflow failed: %v", err)
	}
	if a.Votes != 100 {
		t.Errorf("Votes = %d, want 100", a.Votes)
	}
	if _, err := store.ListArticles(ctx, ArticleFilter{SortBy: "votes", Order: "desc", Limit: 10}); err != nil {
		t.Errorf("ListArticles after overflow failed: %v", err)
	}
}

func TestDeleteArticleCascades(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	if err := store.DeleteArticle(ctx, 1); err != nil {
		t.Fatalf("DeleteArticle failed: %v", err)
	}
	if err := store.Exists(ctx, ArticleID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("article still exists: %v", err)
	}
	if err := store.Exists(ctx, CommentID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("comment survived article delete: %v", err)
	}
	if err := store.DeleteArticle(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteArticle error = %v, want ErrNotFound", err)
	}
}

func TestComments(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	comments, err := store.ListComments(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if !comments[0].CreatedAt.After(comments[1].CreatedAt) {
		t.Errorf("comments not newest first: %v, %v", comments[0].CreatedAt, comments[1].CreatedAt)
	}

	empty, err := store.ListComments(ctx, 2, 10, 0)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}

	c, err := store.IncrementCommentVotes(ctx, comments[0].CommentID, 3)
	if err != nil {
		t.Fatalf("IncrementCommentVotes failed: %v", err)
	}
	if c.Votes != 3 {
		t.Errorf("Votes = %d, want 3", c.Votes)
	}
	if _, err := store.IncrementCommentVotes(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("IncrementCommentVotes(999) error = %v, want ErrNotFound", err)
	}

	if err := store.DeleteComment(ctx, c.CommentID); err != nil {
		t.Fatalf("DeleteComment failed: %v", err)
	}
	if err := store.DeleteComment(ctx, c.CommentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteComment error = %v, want ErrNotFound", err)
	}
}

func TestListArticles(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	all, err := store.ListArticles(ctx, ArticleFilter{SortBy: "created_at", Order: "desc", Limit: 10})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(all))
	}
	// Articles 2 and 3 share created_at; ties fall back to article_id.
	wantIDs := []int64{3, 2, 1}
	for i, a := range all {
		if a.ArticleID != wantIDs[i] {
			t.Errorf("position %d: article %d, want %d", i, a.ArticleID, wantIDs[i])
		}
		if a.TotalCount != 3 {
			t.Errorf("article %d: TotalCount = %d, want 3", a.ArticleID, a.TotalCount)
		}
	}
	if all[2].CommentCount != 2 {
		t.Errorf("article 1 CommentCount = %d, want 2", all[2].CommentCount)
	}

	mitch, err := store.ListArticles(ctx, ArticleFilter{Topic: "mitch", SortBy: "votes", Order: "asc", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(mitch) != 1 || mitch[0].ArticleID != 1 || mitch[0].TotalCount != 2 {
		t.Errorf("unexpected filtered page: %+v", mitch)
	}

	byComments, err := store.ListArticles(ctx, ArticleFilter{SortBy: "comment_count", Order: "desc", Limit: 10})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if byComments[0].ArticleID != 1 {
		t.Errorf("most commented = %d, want 1", byComments[0].ArticleID)
	}

	none, err := store.ListArticles(ctx, ArticleFilter{Topic: "paper", SortBy: "title", Order: "asc", Limit: 10})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}

	if _, err := store.ListArticles(ctx, ArticleFilter{SortBy: "body", Order: "asc", Limit: 10}); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("sort by body error = %v, want ErrInvalidSort", err)
	}
}

func TestResetRestartsIdentity(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	populate(t, store)

	a, err := store.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle after reset failed: %v", err)
	}
	if a.Title != "First" {
		t.Errorf("article 1 after reset = %q, want First", a.Title)
	}
}

func TestInTx(t *testing.T) {
	store := newTestStore(t)
	populate(t, store)
	ctx := context.Background()

	err := store.InTx(ctx, func(tx Repository) error {
		if _, err := tx.InsertTopic(ctx, Topic{Slug: "paper"}); err != nil {
			return err
		}
		return tx.DeleteArticle(ctx, 999)
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("InTx error = %v, want ErrNotFound", err)
	}
	if err := store.Exists(ctx, TopicSlug, "paper"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rolled back topic still visible: %v", err)
	}

	err = store.InTx(ctx, func(tx Repository) error {
		_, err := tx.InsertTopic(ctx, Topic{Slug: "paper"})
		return err
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
	if err := store.Exists(ctx, TopicSlug, "paper"); err != nil {
		t.Errorf("committed topic missing: %v", err)
	}
}
