// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists the posts fetched from a publication in a SQLite
// database so runs can be merged, indexed and exported.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/sub2md/pkg/types"
)

// Run records one fetch run against a publication.
type Run struct {
	ID          string            `json:"id" yaml:"id"`
	Publication string            `json:"publication" yaml:"publication"`
	StartedAt   time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Result      types.BatchResult `json:"result" yaml:"result"`
}

// Store manages the catalog database of one publication.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the catalog database at path and creates the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	// Workers write concurrently; one connection serializes them.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			url TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			title TEXT,
			subtitle TEXT,
			author TEXT,
			published_at TEXT,
			like_count INTEGER NOT NULL DEFAULT 0,
			paid INTEGER NOT NULL DEFAULT 0,
			markdown_path TEXT,
			html_path TEXT,
			fetched_at TEXT NOT NULL,
			run_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			publication TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			converted INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun records the start of a fetch run and returns its ID.
func (s *Store) StartRun(ctx context.Context, publication string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, publication, started_at) VALUES (?, ?, ?)`,
		id, publication, formatTime(time.Now().UTC()),
	)
	if err != nil {
		return "", fmt.Errorf("recording run start: %w", err)
	}
	return id, nil
}

// FinishRun stores the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id string, result types.BatchResult) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, converted = ?, skipped = ?, failed = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), result.Converted, result.Skipped, result.Failed, id,
	)
	if err != nil {
		return fmt.Errorf("recording run result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Runs returns all recorded runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, publication, started_at, finished_at, converted, skipped, failed
		 FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Publication, &started, &finished,
			&r.Result.Converted, &r.Result.Skipped, &r.Result.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Upsert inserts or replaces the record for post.URL.
func (s *Store) Upsert(ctx context.Context, post types.Post, runID string) error {
	var published any
	if post.PublishedAt != nil {
		published = formatTime(*post.PublishedAt)
	}
	fetched := post.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (url, slug, title, subtitle, author, published_at, like_count, paid,
			markdown_path, html_path, fetched_at, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			slug=excluded.slug, title=excluded.title, subtitle=excluded.subtitle,
			author=excluded.author, published_at=excluded.published_at,
			like_count=excluded.like_count, paid=excluded.paid,
			markdown_path=excluded.markdown_path, html_path=excluded.html_path,
			fetched_at=excluded.fetched_at, run_id=excluded.run_id`,
		post.URL, post.Slug, post.Title, post.Subtitle, post.Author, published,
		post.LikeCount, post.Paid, post.MarkdownPath, post.HTMLPath,
		formatTime(fetched), nullString(runID),
	)
	if err != nil {
		return fmt.Errorf("upserting post %s: %w", post.URL, err)
	}
	return nil
}

// Post returns the record for url. The second result is false when the
// post is not in the catalog.
func (s *Store) Post(ctx context.Context, url string) (types.Post, bool, error) {
	row := s.db.QueryRowContext(ctx, selectPosts+` WHERE url = ?`, url)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Post{}, false, nil
	}
	if err != nil {
		return types.Post{}, false, err
	}
	return p, true, nil
}

// Posts returns every post, newest first. Undated posts come last, ordered
// by URL.
func (s *Store) Posts(ctx context.Context) ([]types.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		selectPosts+` ORDER BY published_at IS NULL, published_at DESC, url`)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	posts := []types.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Count returns the number of posts in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

const selectPosts = `SELECT url, slug, title, subtitle, author, published_at, like_count, paid,
	markdown_path, html_path, fetched_at FROM posts`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner) (types.Post, error) {
	var (
		p                 types.Post
		title, subtitle   sql.NullString
		author, published sql.NullString
		mdPath, htmlPath  sql.NullString
		fetched           string
	)
	err := sc.Scan(&p.URL, &p.Slug, &title, &subtitle, &author, &published,
		&p.LikeCount, &p.Paid, &mdPath, &htmlPath, &fetched)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning post: %w", err)
	}
	p.Title = title.String
	p.Subtitle = subtitle.String
	p.Author = author.String
	p.MarkdownPath = mdPath.String
	p.HTMLPath = htmlPath.String
	p.PublishedAt = parseTime(published)
	p.FetchedAt, _ = time.Parse(timeLayout, fetched)
	return p, nil
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
