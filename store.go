package folio

import (
	"database/sql"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps the SQLite database that indexes blog posts and records the
// pages written by the last build.
type Store struct {
	db *sql.DB
}

// ManifestEntry records one written output file.
type ManifestEntry struct {
	OutputPath string
	Source     string
	Hash       string
	NoLayout   bool
	Ignore     bool
	BuiltAt    time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets `serve` read the manifest while a watch rebuild writes it.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    path TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    summary TEXT NOT NULL,
    content TEXT NOT NULL,
    source TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS pages (
    output_path TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    hash TEXT NOT NULL,
    no_layout INTEGER NOT NULL DEFAULT 0,
    ignored INTEGER NOT NULL DEFAULT 0,
    built_at TEXT NOT NULL
);
`)
	return err
}

// ReplacePosts swaps the post index for articles in one transaction.
func (s *Store) ReplacePosts(articles []Article) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM posts`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO posts (path, slug, title, date, tags, summary, content, source, published) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, a := range articles {
		published := 0
		if a.Published {
			published = 1
		}
		if _, err := stmt.Exec(a.Path, a.Slug, a.Title, a.Date.Format(time.RFC3339), tagString(a.Tags),
			string(a.Summary), a.Body, a.Source, published); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const postColumns = `path, slug, title, date, tags, summary, content, source, published`

func scanPosts(rows *sql.Rows) ([]Article, error) {
	defer rows.Close()
	var posts []Article
	for rows.Next() {
		var p, slug, title, date, tags, summary, content, source string
		var published int
		if err := rows.Scan(&p, &slug, &title, &date, &tags, &summary, &content, &source, &published); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, err
		}
		posts = append(posts, Article{
			Slug:      slug,
			Title:     title,
			Date:      t,
			Tags:      ParseTags(tags),
			Summary:   template.HTML(summary),
			Body:      content,
			Source:    source,
			Path:      p,
			Published: published == 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPosts returns all published posts ordered by date descending.
// If tag is non-empty, results are filtered to posts containing that tag.
func (s *Store) ListPosts(tag string) ([]Article, error) {
	var rows *sql.Rows
	var err error
	if tag == "" {
		rows, err = s.db.Query(`SELECT ` + postColumns + ` FROM posts WHERE published = 1 ORDER BY date DESC, slug ASC`)
	} else {
		rows, err = s.db.Query(`SELECT `+postColumns+` FROM posts WHERE published = 1 AND instr(lower(tags), ',' || ? || ',') > 0 ORDER BY date DESC, slug ASC`, normalizeTag(tag))
	}
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ListPostsByDate returns published posts whose date starts with prefix
// ("2024", "2024-01" or "2024-01-15"), newest first.
func (s *Store) ListPostsByDate(prefix string) ([]Article, error) {
	rows, err := s.db.Query(`SELECT `+postColumns+` FROM posts WHERE published = 1 AND date LIKE ? || '%' ORDER BY date DESC, slug ASC`, prefix)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ListTags returns a sorted, deduplicated slice of all tags from published posts.
func (s *Store) ListTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT tags FROM posts WHERE published = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetPost returns a single published post by slug.
func (s *Store) GetPost(slug string) (Article, error) {
	rows, err := s.db.Query(`SELECT `+postColumns+` FROM posts WHERE slug = ? AND published = 1 ORDER BY date DESC LIMIT 1`, slug)
	if err != nil {
		return Article{}, err
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return Article{}, err
	}
	if len(posts) == 0 {
		return Article{}, ErrNotFound
	}
	return posts[0], nil
}

// Manifest returns the recorded pages keyed by output path.
func (s *Store) Manifest() (map[string]ManifestEntry, error) {
	rows, err := s.db.Query(`SELECT output_path, source, hash, no_layout, ignored, built_at FROM pages`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]ManifestEntry)
	for rows.Next() {
		var e ManifestEntry
		var noLayout, ignore int
		var builtAt string
		if err := rows.Scan(&e.OutputPath, &e.Source, &e.Hash, &noLayout, &ignore, &builtAt); err != nil {
			return nil, err
		}
		e.NoLayout = noLayout == 1
		e.Ignore = ignore == 1
		if t, err := time.Parse(time.RFC3339, builtAt); err == nil {
			e.BuiltAt = t
		}
		out[e.OutputPath] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceManifest records entries as the complete set of built pages.
func (s *Store) ReplaceManifest(entries []ManifestEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM pages`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO pages (output_path, source, hash, no_layout, ignored, built_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.Exec(e.OutputPath, e.Source, e.Hash, boolInt(e.NoLayout), boolInt(e.Ignore),
			e.BuiltAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// tagString normalizes tags into the delimited ",go,web," column format.
func tagString(tags []string) string {
	normalized := make([]string, len(tags))
	for i, t := range tags {
		normalized[i] = normalizeTag(t)
	}
	return "," + strings.Join(normalized, ",") + ","
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
