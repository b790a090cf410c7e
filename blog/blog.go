// Package blog provides article storage for the blog platform.
package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when the requested article does not exist.
var ErrNotFound = errors.New("article not found")

// Article is a blog post authored by a registered user.
type Article struct {
	ID              int64     `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Content         string    `db:"content" json:"content"`
	PublicationDate time.Time `db:"publication_date" json:"publication_date"`
	AuthorID        int64     `db:"author_id" json:"author"`
}

// ArticleStore persists articles using SQLite.
type ArticleStore struct {
	db *sqlx.DB
}

// NewArticleStore creates an article store on the given database handle.
func NewArticleStore(db *sqlx.DB) (*ArticleStore, error) {
	store := &ArticleStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *ArticleStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		publication_date TIMESTAMP NOT NULL,
		author_id INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create inserts a new article. The publication date is set to the moment
// of creation.
func (s *ArticleStore) Create(ctx context.Context, title, content string, authorID int64) (*Article, error) {
	article := &Article{
		Title:           title,
		Content:         content,
		PublicationDate: time.Now().UTC(),
		AuthorID:        authorID,
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO articles (title, content, publication_date, author_id) VALUES (?, ?, ?, ?)",
		article.Title, article.Content, article.PublicationDate, article.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert article: %w", err)
	}

	article.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return article, nil
}

// Get returns an article by id.
func (s *ArticleStore) Get(ctx context.Context, id int64) (*Article, error) {
	var article Article
	err := s.db.GetContext(ctx, &article,
		"SELECT id, title, content, publication_date, author_id FROM articles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

// List returns all articles, newest first.
func (s *ArticleStore) List(ctx context.Context) ([]Article, error) {
	var articles []Article
	err := s.db.SelectContext(ctx, &articles,
		"SELECT id, title, content, publication_date, author_id FROM articles ORDER BY publication_date DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, nil
}

// Latest returns the most recently published article.
func (s *ArticleStore) Latest(ctx context.Context) (*Article, error) {
	var article Article
	err := s.db.GetContext(ctx, &article,
		"SELECT id, title, content, publication_date, author_id FROM articles ORDER BY publication_date DESC, id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest article: %w", err)
	}
	return &article, nil
}

// Update replaces the title and content of an existing article.
func (s *ArticleStore) Update(ctx context.Context, id int64, title, content string) (*Article, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE articles SET title = ?, content = ? WHERE id = ?", title, content, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes an article by id.
func (s *ArticleStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
