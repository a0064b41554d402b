package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewjhunter/newsdesk/internal/storage"
)

func TestTestDataShape(t *testing.T) {
	f := TestData()
	assert.Len(t, f.Topics, 3)
	assert.Len(t, f.Users, 4)
	assert.Len(t, f.Articles, 13)
	assert.Len(t, f.Comments, 18)

	first := f.Articles[0]
	assert.Equal(t, "Living in the shadow of a great man", first.Title)
	assert.Equal(t, 100, first.Votes)
	assert.True(t, first.CreatedAt.Equal(time.Date(2020, 7, 9, 20, 11, 0, 0, time.UTC)))

	perArticle := map[int]int{}
	for _, c := range f.Comments {
		perArticle[c.Article]++
	}
	assert.Equal(t, 11, perArticle[1])
	assert.Equal(t, 0, perArticle[2])
}

func TestEmbeddedUnknown(t *testing.T) {
	_, err := Embedded("production")
	assert.Error(t, err)
}

func TestReadFileRejectsDanglingComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := `articles: []
comments:
  - body: orphan
    article: 1
    author: lurker
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := ReadFile(path)
	assert.ErrorContains(t, err, "refers to article 1")
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	// Applying twice must leave exactly one copy of the data.
	require.NoError(t, Apply(ctx, store, TestData()))
	require.NoError(t, Apply(ctx, store, TestData()))

	topics, err := store.ListTopics(ctx)
	require.NoError(t, err)
	assert.Len(t, topics, 3)

	article, err := store.GetArticle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "butter_bridge", article.Author)
	assert.Equal(t, 11, article.CommentCount)

	empty, err := store.GetArticle(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.CommentCount)

	comment, err := store.GetComment(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, -100, comment.Votes)
	assert.Equal(t, int64(1), comment.ArticleID)
	assert.True(t, comment.CreatedAt.Equal(time.Date(2020, 2, 23, 12, 1, 0, 0, time.UTC)))
}

func TestApplyFailureKeepsPreviousData(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, Apply(ctx, store, TestData()))

	broken := TestData()
	broken.Comments[len(broken.Comments)-1].Author = "ghost"
	require.Error(t, Apply(ctx, store, broken))

	topics, err := store.ListTopics(ctx)
	require.NoError(t, err)
	assert.Len(t, topics, 3)

	article, err := store.GetArticle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, article.CommentCount)
}
