package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/bookplay/internal/book"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    source       TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    sample       INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS documents_content_hash ON documents(content_hash);

CREATE TABLE IF NOT EXISTS chapters (
    doc_id   TEXT NOT NULL,
    position INTEGER NOT NULL,
    title    TEXT NOT NULL,
    text     TEXT NOT NULL,
    tokens   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (doc_id, position)
);
`

// timeLayout has fixed-width fractional seconds so stored timestamps sort
// as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is a Repository backed by a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, doc book.Document) error {
	if doc.ID == "" {
		return errors.New("put: document has no id")
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE doc_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clear chapters: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (id, title, source, content_hash, sample, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    source = excluded.source,
    content_hash = excluded.content_hash,
    sample = excluded.sample,
    created_at = excluded.created_at`,
		doc.ID, doc.Title, doc.Source, doc.ContentHash, doc.Sample, doc.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chapters (doc_id, position, title, text, tokens) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chapters: %w", err)
	}
	defer stmt.Close()
	for i, ch := range doc.Chapters {
		if _, err := stmt.ExecContext(ctx, doc.ID, i, ch.Title, ch.Text, ch.Tokens); err != nil {
			return fmt.Errorf("insert chapter %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (book.Document, error) {
	var (
		doc     book.Document
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, source, content_hash, sample, created_at FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Title, &doc.Source, &doc.ContentHash, &doc.Sample, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Document{}, ErrNotFound
	}
	if err != nil {
		return book.Document{}, fmt.Errorf("get document: %w", err)
	}
	doc.CreatedAt = parseTime(created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, text, tokens FROM chapters WHERE doc_id = ? ORDER BY position`, id)
	if err != nil {
		return book.Document{}, fmt.Errorf("get chapters: %w", err)
	}
	defer rows.Close()

	doc.Chapters = []book.Chapter{}
	for rows.Next() {
		var ch book.Chapter
		if err := rows.Scan(&ch.Title, &ch.Text, &ch.Tokens); err != nil {
			return book.Document{}, fmt.Errorf("scan chapter: %w", err)
		}
		doc.Chapters = append(doc.Chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return book.Document{}, fmt.Errorf("read chapters: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]book.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT d.id, d.title, d.source, d.sample, d.created_at,
       COUNT(c.position), COALESCE(SUM(LENGTH(c.text)), 0)
FROM documents d
LEFT JOIN chapters c ON c.doc_id = d.id
GROUP BY d.id
ORDER BY d.created_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []book.Summary{}
	for rows.Next() {
		var (
			sum     book.Summary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Source, &sum.Sample, &created, &sum.Chapters, &sum.Chars); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.CreatedAt = parseTime(created)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read summaries: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE doc_id = ?`, id); err != nil {
		return fmt.Errorf("delete chapters: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	if hash == "" {
		return "", false, nil
	}
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE content_hash = ? LIMIT 1`, hash,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find by hash: %w", err)
	}
	return id, true, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
