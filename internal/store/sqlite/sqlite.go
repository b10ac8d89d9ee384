// Package sqlite stores pages in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/page"
)

const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// driverName is go-sqlite3 with unicode_lower registered on every
// connection. SQLite's LOWER only folds ASCII.
const driverName = "sqlite3_folio"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id         TEXT PRIMARY KEY,
	slug       TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	excerpt    TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	image      TEXT NOT NULL DEFAULT '',
	published  INTEGER NOT NULL DEFAULT 0,
	is_deleted INTEGER NOT NULL DEFAULT 0,
	author_id  TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS pages_slug ON pages(slug);
CREATE INDEX IF NOT EXISTS pages_listing ON pages(published, is_deleted, updated_at);
`

const columns = `id, slug, title, content, excerpt, tags, image, published, is_deleted, author_id, created_at, updated_at`

// Store is a page.Store backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ page.Store = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", filepath.Dir(path), err)
		}
	}

	db, err := sql.Open(driverName, path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("sqlite store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (*page.Page, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM pages WHERE slug = ?`, slug)
	return scanPage(row)
}

func (s *Store) GetByID(ctx context.Context, id string) (*page.Page, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

func (s *Store) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Insert(ctx context.Context, p *page.Page) error {
	args, err := values(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO pages (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return mapError(err)
}

func (s *Store) Save(ctx context.Context, p *page.Page) error {
	args, err := values(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE pages SET slug = ?, title = ?, content = ?, excerpt = ?, tags = ?, image = ?,
			published = ?, is_deleted = ?, author_id = ?, created_at = ?, updated_at = ?
		WHERE id = ?`, append(args[1:], args[0])...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return page.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, opts page.ListOptions) ([]*page.Page, error) {
	var (
		where []string
		args  []any
	)
	if !opts.IncludeDeleted {
		where = append(where, "is_deleted = 0")
	}
	if opts.Published != nil {
		where = append(where, "published = ?")
		args = append(args, *opts.Published)
	}

	query := `SELECT ` + columns + ` FROM pages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	return s.query(ctx, query, args...)
}

func (s *Store) SearchTitles(ctx context.Context, q string, limit int) ([]*page.Page, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	return s.query(ctx, `
		SELECT `+columns+` FROM pages
		WHERE is_deleted = 0 AND unicode_lower(title) LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC, id
		LIMIT ?`, pattern, limit)
}

func (s *Store) Count(ctx context.Context) (page.Counts, error) {
	var c page.Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN published = 1 AND is_deleted = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(is_deleted), 0)
		FROM pages`).Scan(&c.Total, &c.Published, &c.Deleted)
	if err != nil {
		return page.Counts{}, fmt.Errorf("failed to count pages: %w", err)
	}
	return c, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*page.Page, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	pages := []*page.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pages: %w", err)
	}
	return pages, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*page.Page, error) {
	var (
		p                    page.Page
		content, tags        string
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &content, &p.Excerpt, &tags, &p.Image,
		&p.Published, &p.IsDeleted, &p.AuthorID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, page.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan page: %w", err)
	}

	var doc document.Node
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode content of page %s: %w", p.ID, err)
	}
	p.Content = &doc
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of page %s: %w", p.ID, err)
	}
	if p.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at of page %s: %w", p.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at of page %s: %w", p.ID, err)
	}
	return &p, nil
}

// values returns the column values of p in the order of columns.
func values(p *page.Page) ([]any, error) {
	content, err := document.Encode(p.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return []any{
		p.ID, p.Slug, p.Title, string(content), p.Excerpt, string(tagsJSON), p.Image,
		p.Published, p.IsDeleted, p.AuthorID,
		p.CreatedAt.UTC().Format(timeFormat), p.UpdatedAt.UTC().Format(timeFormat),
	}, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %v", page.ErrConflict, err)
	}
	return fmt.Errorf("failed to write page: %w", err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
