package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted in DatabaseConfig.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

const (
	// DefaultArticleImgURL is used when a new article carries no image.
	DefaultArticleImgURL = "https://images.pexels.com/photos/97050/pexels-photo-97050.jpeg?w=700&h=700"
	// DefaultVotes is the starting vote count of articles and comments.
	DefaultVotes = 0
)

var (
	// ErrNotFound is returned when a lookup, update or delete matches no row.
	ErrNotFound = errors.New("storage: no matching row")
	// ErrUnknownReference is returned for a table/column pair outside the existence allow-list.
	ErrUnknownReference = errors.New("storage: unknown table/column reference")
	// ErrInvalidSort is returned for a sort column or direction outside the listing whitelist.
	ErrInvalidSort = errors.New("storage: invalid sort")
)

func init() {
	// sqlx only knows the cgo sqlite driver name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type Store struct {
	db     *sqlx.DB
	q      queryer
	driver string
}

type Topic struct {
	Slug        string `db:"slug"`
	Description string `db:"description"`
}

type User struct {
	Username  string `db:"username"`
	Name      string `db:"name"`
	AvatarURL string `db:"avatar_url"`
}

type Article struct {
	ArticleID     int64     `db:"article_id"`
	Title         string    `db:"title"`
	Topic         string    `db:"topic"`
	Author        string    `db:"author"`
	Body          string    `db:"body"`
	CreatedAt     time.Time `db:"created_at"`
	Votes         int       `db:"votes"`
	ArticleImgURL string    `db:"article_img_url"`
	CommentCount  int       `db:"comment_count"`
}

// ArticleSummary is one row of an article listing. It has no body and carries
// the filtered, pre-pagination row count.
type ArticleSummary struct {
	ArticleID     int64     `db:"article_id"`
	Title         string    `db:"title"`
	Topic         string    `db:"topic"`
	Author        string    `db:"author"`
	CreatedAt     time.Time `db:"created_at"`
	Votes         int       `db:"votes"`
	ArticleImgURL string    `db:"article_img_url"`
	CommentCount  int       `db:"comment_count"`
	TotalCount    int       `db:"total_count"`
}

type Comment struct {
	CommentID int64     `db:"comment_id"`
	Body      string    `db:"body"`
	ArticleID int64     `db:"article_id"`
	Author    string    `db:"author"`
	Votes     int       `db:"votes"`
	CreatedAt time.Time `db:"created_at"`
}

// NewArticle holds the columns written on article insert. A zero CreatedAt is
// replaced with the current time.
type NewArticle struct {
	Title         string
	Topic         string
	Author        string
	Body          string
	ArticleImgURL string
	Votes         int
	CreatedAt     time.Time
}

type NewComment struct {
	ArticleID int64
	Author    string
	Body      string
	Votes     int
	CreatedAt time.Time
}

// NewStore opens the configured database and makes sure the schema exists.
func NewStore(ctx context.Context, cfg DatabaseConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var dsn string
	switch driver {
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite database path is empty")
		}
		dsn = cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	case DriverPostgres, DriverPgx:
		if cfg.URL == "" {
			return nil, fmt.Errorf("%s database url is empty", driver)
		}
		dsn = cfg.URL
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, q: db, driver: driver}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore opens a SQLite database file with default settings.
func NewSQLiteStore(ctx context.Context, path string) (*Store, error) {
	return NewStore(ctx, DatabaseConfig{Driver: DriverSQLite, Path: path})
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Reset drops every table and recreates the schema. Identity sequences restart at 1.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"comments", "articles", "users", "topics"} {
		if _, err := s.q.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return s.Migrate(ctx)
}

// InTx runs fn against a view of the store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Calls made
// on a view that is already transactional join the open transaction.
func (s *Store) InTx(ctx context.Context, fn func(Repository) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Store{db: s.db, q: tx, driver: s.driver}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rebind converts ? placeholders to the driver's bindvar style.
func (s *Store) rebind(query string) string {
	return s.q.Rebind(query)
}

// affectedOne maps a zero-row write to ErrNotFound.
func affectedOne(res interface{ RowsAffected() (int64, error) }, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
