// Package sqlite persists the tag index in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zettelware/zettag/pkg/zettag/index"
	"github.com/zettelware/zettag/pkg/zettag/tag"
)

// sqliteIndex implements index.Index using SQLite.
type sqliteIndex struct {
	db *sql.DB
}

// Open opens or creates the index database at path with WAL mode
// enabled.
func Open(ctx context.Context, path string) (index.Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteIndex{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteIndex) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT UNIQUE NOT NULL,
	indexed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT '',
	line INTEGER NOT NULL,
	identifier TEXT,
	title TEXT,
	encoded TEXT,
	summary TEXT,
	FOREIGN KEY(file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tags_file ON tags(file_id);
CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name);
CREATE INDEX IF NOT EXISTS idx_tags_kind ON tags(kind);
CREATE INDEX IF NOT EXISTS idx_tags_identifier ON tags(identifier);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// ReplaceFile opens a transaction that clears path's tags and inserts
// the replacement batch.
func (s *sqliteIndex) ReplaceFile(ctx context.Context, path string) (index.Writer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files (path, indexed_at) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET indexed_at = excluded.indexed_at`,
		path, time.Now().UTC().Format(time.RFC3339)); err != nil {
		tx.Rollback()
		return nil, err
	}

	var fileID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM files WHERE path = ?`, path).Scan(&fileID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tags WHERE file_id = ?`, fileID); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &writer{ctx: ctx, tx: tx, fileID: fileID}, nil
}

// RemoveFile drops a file and its tags.
func (s *sqliteIndex) RemoveFile(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var fileID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM files WHERE path = ?`, path).Scan(&fileID)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return index.ErrFileUnknown
	}
	if err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tags WHERE file_id = ?`, fileID); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM files WHERE id = ?`, fileID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Files lists indexed paths in lexical order.
func (s *sqliteIndex) Files(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, rows.Err()
}

// Entries returns matching entries ordered by file, then line.
func (s *sqliteIndex) Entries(ctx context.Context, f index.Filter) ([]index.Entry, error) {
	query := `SELECT t.id, f.path, t.name, t.kind, t.role, t.line,
		t.identifier, t.title, t.encoded, t.summary
		FROM tags t JOIN files f ON f.id = t.file_id`

	var where []string
	var args []any
	if f.File != "" {
		where = append(where, "f.path = ?")
		args = append(args, f.File)
	}
	if f.Name != "" {
		where = append(where, "t.name = ?")
		args = append(args, f.Name)
	}
	if f.Identifier != "" {
		where = append(where, "t.identifier = ?")
		args = append(args, f.Identifier)
	}
	if len(f.Kinds) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Kinds)), ",")
		where = append(where, fmt.Sprintf("t.kind IN (%s)", marks))
		for _, k := range f.Kinds {
			args = append(args, k.String())
		}
	}
	if len(f.Roles) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Roles)), ",")
		where = append(where, fmt.Sprintf("t.role IN (%s)", marks))
		for _, r := range f.Roles {
			args = append(args, r.String())
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY f.path, t.line, t.id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []index.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (index.Entry, error) {
	var (
		e          index.Entry
		kind, role string
		fieldVals  [4]sql.NullString
	)
	if err := rows.Scan(&e.ID, &e.File, &e.Tag.Name, &kind, &role, &e.Tag.Line,
		&fieldVals[0], &fieldVals[1], &fieldVals[2], &fieldVals[3]); err != nil {
		return e, err
	}

	k, ok := tag.KindFromName(kind)
	if !ok {
		return e, fmt.Errorf("entry %d: unknown kind %q", e.ID, kind)
	}
	e.Tag.Kind = k
	r, ok := tag.RoleFromName(role)
	if !ok {
		return e, fmt.Errorf("entry %d: unknown role %q", e.ID, role)
	}
	e.Tag.Role = r

	ids := [4]tag.FieldID{tag.FieldIdentifier, tag.FieldTitle, tag.FieldEncodedName, tag.FieldSummary}
	for i, v := range fieldVals {
		if !v.Valid {
			continue
		}
		if e.Tag.Fields == nil {
			e.Tag.Fields = make(map[tag.FieldID]string, 2)
		}
		e.Tag.Fields[ids[i]] = v.String
	}
	return e, nil
}

// Stats reports index totals.
func (s *sqliteIndex) Stats(ctx context.Context) (index.Stats, error) {
	st := index.Stats{ByKind: make(map[tag.Kind]int64)}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM files`).Scan(&st.Files); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags`).Scan(&st.Tags); err != nil {
		return st, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM tags GROUP BY kind`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return st, err
		}
		if k, ok := tag.KindFromName(kind); ok {
			st.ByKind[k] = n
		}
	}
	return st, rows.Err()
}

// fieldColumns maps attachable fields onto tag table columns.
var fieldColumns = map[tag.FieldID]string{
	tag.FieldIdentifier:  "identifier",
	tag.FieldTitle:       "title",
	tag.FieldEncodedName: "encoded",
	tag.FieldSummary:     "summary",
}

// writer inserts one file's tags inside a transaction. Handles are
// tag row ids.
type writer struct {
	ctx    context.Context
	tx     *sql.Tx
	fileID int64
}

// Create implements tag.Sink.
func (w *writer) Create(name string, kind tag.Kind, role tag.Role, line int) (tag.Handle, error) {
	res, err := w.tx.ExecContext(w.ctx,
		`INSERT INTO tags (file_id, name, kind, role, line) VALUES (?, ?, ?, ?, ?)`,
		w.fileID, name, kind.String(), role.String(), line)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return tag.Handle(id), nil
}

// Attach implements tag.Sink.
func (w *writer) Attach(h tag.Handle, field tag.FieldID, value string) error {
	col, ok := fieldColumns[field]
	if !ok {
		return fmt.Errorf("attach: no column for field %s", field)
	}
	res, err := w.tx.ExecContext(w.ctx,
		fmt.Sprintf(`UPDATE tags SET %s = ? WHERE id = ? AND file_id = ?`, col),
		value, int64(h), w.fileID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("attach %s: no tag with handle %d", field, int64(h))
	}
	return nil
}

// Commit publishes the batch.
func (w *writer) Commit() error {
	return w.tx.Commit()
}

// Discard abandons the batch and restores the file's previous tags.
func (w *writer) Discard() error {
	return w.tx.Rollback()
}
