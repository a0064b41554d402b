// Package seed loads fixture datasets into a store.
package seed

import (
	"context"
	"embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matthewjhunter/newsdesk/internal/storage"
)

//go:embed fixtures/*.yaml
var fixtures embed.FS

type Topic struct {
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type User struct {
	Username  string `yaml:"username"`
	Name      string `yaml:"name"`
	AvatarURL string `yaml:"avatar_url"`
}

type Article struct {
	Title         string    `yaml:"title"`
	Topic         string    `yaml:"topic"`
	Author        string    `yaml:"author"`
	Body          string    `yaml:"body"`
	CreatedAt     time.Time `yaml:"created_at"`
	Votes         int       `yaml:"votes"`
	ArticleImgURL string    `yaml:"article_img_url"`
}

// Comment refers to its article by 1-based position in Fixture.Articles.
type Comment struct {
	Body      string    `yaml:"body"`
	Article   int       `yaml:"article"`
	Author    string    `yaml:"author"`
	Votes     int       `yaml:"votes"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Fixture is a complete dataset.
type Fixture struct {
	Topics   []Topic   `yaml:"topics"`
	Users    []User    `yaml:"users"`
	Articles []Article `yaml:"articles"`
	Comments []Comment `yaml:"comments"`
}

// Embedded returns a fixture bundled with the binary, by name ("test").
func Embedded(name string) (*Fixture, error) {
	data, err := fixtures.ReadFile("fixtures/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown fixture %q: %w", name, err)
	}
	return parse(data)
}

// TestData returns the embedded "test" fixture.
func TestData() *Fixture {
	f, err := Embedded("test")
	if err != nil {
		panic(err)
	}
	return f
}

// ReadFile parses a fixture from a YAML file on disk.
func ReadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	for i, c := range f.Comments {
		if c.Article < 1 || c.Article > len(f.Articles) {
			return fmt.Errorf("comment %d refers to article %d, fixture has %d", i+1, c.Article, len(f.Articles))
		}
	}
	return nil
}

// Apply wipes the store and inserts the fixture in dependency order. The reset
// and the inserts share one transaction, so a failed load leaves the previous
// data in place.
func Apply(ctx context.Context, repo storage.Repository, f *Fixture) error {
	return repo.InTx(ctx, func(tx storage.Repository) error {
		return load(ctx, tx, f)
	})
}

func load(ctx context.Context, repo storage.Repository, f *Fixture) error {
	if err := repo.Reset(ctx); err != nil {
		return fmt.Errorf("reset schema: %w", err)
	}

	for _, t := range f.Topics {
		if _, err := repo.InsertTopic(ctx, storage.Topic{Slug: t.Slug, Description: t.Description}); err != nil {
			return err
		}
	}
	for _, u := range f.Users {
		if err := repo.InsertUser(ctx, storage.User{Username: u.Username, Name: u.Name, AvatarURL: u.AvatarURL}); err != nil {
			return err
		}
	}

	ids := make([]int64, len(f.Articles))
	for i, a := range f.Articles {
		id, err := repo.InsertArticle(ctx, storage.NewArticle{
			Title:         a.Title,
			Topic:         a.Topic,
			Author:        a.Author,
			Body:          a.Body,
			ArticleImgURL: a.ArticleImgURL,
			Votes:         a.Votes,
			CreatedAt:     a.CreatedAt,
		})
		if err != nil {
			return err
		}
		ids[i] = id
	}

	for _, c := range f.Comments {
		_, err := repo.InsertComment(ctx, storage.NewComment{
			ArticleID: ids[c.Article-1],
			Author:    c.Author,
			Body:      c.Body,
			Votes:     c.Votes,
			CreatedAt: c.CreatedAt,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
