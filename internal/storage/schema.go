package storage

// sqliteSchema is applied statement by statement on SQLite databases. Votes
// are held to integers in the int4 range postgres enforces.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
    slug TEXT PRIMARY KEY NOT NULL,
    description TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY NOT NULL,
    name TEXT NOT NULL,
    avatar_url TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS articles (
    article_id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    topic TEXT NOT NULL REFERENCES topics(slug),
    author TEXT NOT NULL REFERENCES users(username),
    body TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (typeof(votes) = 'integer' AND votes BETWEEN -2147483648 AND 2147483647),
    article_img_url TEXT NOT NULL DEFAULT '` + DefaultArticleImgURL + `'
)`,
	`CREATE TABLE IF NOT EXISTS comments (
    comment_id INTEGER PRIMARY KEY AUTOINCREMENT,
    body TEXT NOT NULL,
    article_id INTEGER NOT NULL REFERENCES articles(article_id) ON DELETE CASCADE,
    author TEXT NOT NULL REFERENCES users(username),
    votes INTEGER NOT NULL DEFAULT 0 CHECK (typeof(votes) = 'integer' AND votes BETWEEN -2147483648 AND 2147483647),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles(topic)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_article ON comments(article_id)`,
}

// postgresSchema serves both the lib/pq and pgx drivers.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
    slug VARCHAR PRIMARY KEY,
    description VARCHAR NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS users (
    username VARCHAR PRIMARY KEY,
    name VARCHAR NOT NULL,
    avatar_url VARCHAR NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS articles (
    article_id SERIAL PRIMARY KEY,
    title VARCHAR NOT NULL,
    topic VARCHAR NOT NULL REFERENCES topics(slug),
    author VARCHAR NOT NULL REFERENCES users(username),
    body VARCHAR NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    votes INT NOT NULL DEFAULT 0,
    article_img_url VARCHAR NOT NULL DEFAULT '` + DefaultArticleImgURL + `'
)`,
	`CREATE TABLE IF NOT EXISTS comments (
    comment_id SERIAL PRIMARY KEY,
    body VARCHAR NOT NULL,
    article_id INT NOT NULL REFERENCES articles(article_id) ON DELETE CASCADE,
    author VARCHAR NOT NULL REFERENCES users(username),
    votes INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles(topic)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_article ON comments(article_id)`,
}

func schemaFor(driver string) []string {
	if driver == DriverSQLite {
		return sqliteSchema
	}
	return postgresSchema
}
